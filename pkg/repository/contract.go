package repository

import (
	"context"

	"crudkit/pkg/entity"
	"crudkit/pkg/query"
)

// Repository stores records of type E in the table described by Table().
//
// Sort properties are logical column names; an unknown one fails with
// ErrInvalidSort. A nil predicate matches every row.
type Repository[E any] interface {
	Table() *entity.Table[E]

	FindAll(ctx context.Context, sort query.Sort) ([]*E, error)
	Find(ctx context.Context, where query.Predicate, sort query.Sort) ([]*E, error)
	FindAllPaginated(ctx context.Context, where query.Predicate, sort query.Sort, pagination Pagination) (*PaginatedResult[E], error)
	FindOne(ctx context.Context, where query.Predicate) (*E, error)
	Count(ctx context.Context, where query.Predicate) (int64, error)

	FindByID(ctx context.Context, id string) (*E, error)
	FindAllByID(ctx context.Context, ids []string) ([]*E, error)
	FindAllByIDNotIn(ctx context.Context, ids []string) ([]*E, error)
	ExistsByID(ctx context.Context, id string) error

	Save(ctx context.Context, e *E) error
	SaveAll(ctx context.Context, entities []*E) error
	UpdateEnabled(ctx context.Context, id string, enabled bool) (int64, error)

	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteEntities(ctx context.Context, entities []*E) (int64, error)
	DeleteEntity(ctx context.Context, e *E) error
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PaginationOf converts a normalised page request.
func PaginationOf(p query.Pageable) Pagination {
	return Pagination{Limit: p.Limit(), Offset: p.Offset()}
}

type PaginatedResult[E any] struct {
	Pagination Pagination `json:"pagination"`
	TotalCount int64      `json:"total_count"`
	Results    []*E       `json:"results"`
}
