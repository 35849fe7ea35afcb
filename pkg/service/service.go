// Package service implements the generic CRUD service shared by every
// record type: paging, filtering by example, batch changes and bulk
// import/export.
package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"crudkit/pkg/dbx"
	"crudkit/pkg/entity"
	"crudkit/pkg/query"
	"crudkit/pkg/repository"
)

type Option[E any] func(*Service[E])

// WithBeforeSave installs a hook run before every save. A non-nil error
// vetoes the save, which then fails with ErrOperationFailed.
func WithBeforeSave[E any](hook func(ctx context.Context, e *E) error) Option[E] {
	return func(s *Service[E]) { s.beforeSave = hook }
}

// WithMatcher replaces the matcher used by Query, FindAll and Count.
func WithMatcher[E any](m query.Matcher) Option[E] {
	return func(s *Service[E]) { s.matcher = m }
}

// WithTempDir sets the parent directory of export files. Empty means the
// system temp directory.
func WithTempDir[E any](dir string) Option[E] {
	return func(s *Service[E]) { s.tempDir = dir }
}

func WithLogger[E any](log *zap.Logger) Option[E] {
	return func(s *Service[E]) { s.log = log }
}

func WithIDGenerator[E any](gen entity.IDGenerator) Option[E] {
	return func(s *Service[E]) { s.repoOpts = append(s.repoOpts, repository.WithIDGenerator(gen)) }
}

func WithClock[E any](now func() time.Time) Option[E] {
	return func(s *Service[E]) {
		s.now = now
		s.repoOpts = append(s.repoOpts, repository.WithClock(now))
	}
}

// Service is the generic CRUD service for records described by a table.
// Writes run in one transaction per call; reads use the pool.
type Service[E any] struct {
	db         *sqlx.DB
	table      *entity.Table[E]
	log        *zap.Logger
	beforeSave func(ctx context.Context, e *E) error
	matcher    query.Matcher
	tempDir    string
	now        func() time.Time
	repoOpts   []repository.Option
}

func New[E any](db *sqlx.DB, table *entity.Table[E], opts ...Option[E]) *Service[E] {
	s := &Service[E]{
		db:         db,
		table:      table,
		log:        zap.NewNop(),
		beforeSave: func(context.Context, *E) error { return nil },
		matcher:    query.DefaultMatcher(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service[E]) Table() *entity.Table[E] {
	return s.table
}

func (s *Service[E]) repo(db dbx.DBTX) repository.Repository[E] {
	return repository.NewEntityRepository(db, s.table, s.repoOpts...)
}

// reader returns a repository on the pool.
func (s *Service[E]) reader() repository.Repository[E] {
	return s.repo(s.db)
}

func (s *Service[E]) write(ctx context.Context, fn func(ctx context.Context, repo repository.Repository[E]) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.repo(tx))
	})
}

// Save inserts or updates e.
func (s *Service[E]) Save(ctx context.Context, e *E) (*E, error) {
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		return s.save(ctx, repo, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service[E]) save(ctx context.Context, repo repository.Repository[E], e *E) error {
	if err := s.beforeSave(ctx, e); err != nil {
		return fmt.Errorf("%w: %w", ErrOperationFailed, err)
	}
	return repo.Save(ctx, e)
}

// SaveAll saves entities in order inside one transaction.
func (s *Service[E]) SaveAll(ctx context.Context, entities []*E) ([]*E, error) {
	if entities == nil {
		return nil, ErrNilEntities
	}
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		return s.saveAll(ctx, repo, entities)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *Service[E]) saveAll(ctx context.Context, repo repository.Repository[E], entities []*E) error {
	for _, e := range entities {
		if e == nil {
			return ErrNilEntities
		}
		if err := s.save(ctx, repo, e); err != nil {
			return err
		}
	}
	return nil
}

// Update copies the non-null fields of partial onto the stored record and
// saves it. It returns nil, nil when no record has the id.
func (s *Service[E]) Update(ctx context.Context, id string, partial *E) (*E, error) {
	var updated *E
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		var err error
		updated, err = s.update(ctx, repo, id, partial)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service[E]) update(ctx context.Context, repo repository.Repository[E], id string, partial *E) (*E, error) {
	stored, err := repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if partial != nil {
		s.table.CopyNonNull(stored, partial)
	}
	if err := s.save(ctx, repo, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Service[E]) Delete(ctx context.Context, id string) error {
	return s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		return repo.DeleteByID(ctx, id)
	})
}

func (s *Service[E]) DeleteAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		var err error
		n, err = repo.DeleteAll(ctx)
		return err
	})
	return n, err
}

// Query returns one page of records matching example, newest first. A nil
// example matches every record.
func (s *Service[E]) Query(ctx context.Context, page, size int, example *E) (*query.Result[E], error) {
	return s.QueryWhere(ctx, page, size, s.Where(example))
}

// Where is the predicate Query, FindAll and Count build from example.
func (s *Service[E]) Where(example *E) query.Predicate {
	return query.Example(s.table, example, s.matcher)
}

// QueryWhere is Query with an explicit predicate.
func (s *Service[E]) QueryWhere(ctx context.Context, page, size int, where query.Predicate) (*query.Result[E], error) {
	return s.QueryPage(ctx, page, size, where, nil)
}

// QueryPage returns one page of records matching where, ordered by sort with
// createTime descending as the final tiebreak.
func (s *Service[E]) QueryPage(ctx context.Context, page, size int, where query.Predicate, sort query.Sort) (*query.Result[E], error) {
	p := query.PageOf(page, size)
	res, err := s.reader().FindAllPaginated(ctx, where, sort.WithDefault(), repository.PaginationOf(p))
	if err != nil {
		return nil, err
	}
	return query.NewResult(res.Results, res.TotalCount, p), nil
}

// FindAll returns every record matching example ordered by sort, with
// createTime descending as the final tiebreak.
func (s *Service[E]) FindAll(ctx context.Context, example *E, sort query.Sort) ([]*E, error) {
	return s.FindAllWhere(ctx, s.Where(example), sort)
}

func (s *Service[E]) FindAllWhere(ctx context.Context, where query.Predicate, sort query.Sort) ([]*E, error) {
	return s.reader().Find(ctx, where, sort.WithDefault())
}

// FindOne returns the record whose populated fields equal those of example.
// It returns nil, nil when nothing matches and repository.ErrNonUniqueResult
// when more than one record does.
func (s *Service[E]) FindOne(ctx context.Context, example *E) (*E, error) {
	m := query.ExactMatcher().WithIgnoredPaths(s.matcher.IgnoredPaths...)
	return s.FindOneWhere(ctx, query.Example(s.table, example, m))
}

func (s *Service[E]) FindOneWhere(ctx context.Context, where query.Predicate) (*E, error) {
	return s.reader().FindOne(ctx, where)
}

// FindByID returns nil, nil when no record has the id.
func (s *Service[E]) FindByID(ctx context.Context, id string) (*E, error) {
	e, err := s.reader().FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func (s *Service[E]) FindAllByID(ctx context.Context, ids []string) ([]*E, error) {
	return s.reader().FindAllByID(ctx, ids)
}

func (s *Service[E]) FindAllByIDNotIn(ctx context.Context, ids []string) ([]*E, error) {
	return s.reader().FindAllByIDNotIn(ctx, ids)
}

// Count counts the records matching example; nil counts all.
func (s *Service[E]) Count(ctx context.Context, example *E) (int64, error) {
	return s.CountWhere(ctx, s.Where(example))
}

func (s *Service[E]) CountWhere(ctx context.Context, where query.Predicate) (int64, error) {
	return s.reader().Count(ctx, where)
}

// Enabled sets the enabled flag and returns the number of rows changed.
func (s *Service[E]) Enabled(ctx context.Context, id string) (int64, error) {
	return s.setEnabled(ctx, id, true)
}

// Disabled clears the enabled flag and returns the number of rows changed.
func (s *Service[E]) Disabled(ctx context.Context, id string) (int64, error) {
	return s.setEnabled(ctx, id, false)
}

func (s *Service[E]) setEnabled(ctx context.Context, id string, enabled bool) (int64, error) {
	var n int64
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		var err error
		n, err = repo.UpdateEnabled(ctx, id, enabled)
		return err
	})
	return n, err
}

// Batch applies model in one transaction: deletes first, then updates, then
// creates. Branches that are nil in model are skipped.
func (s *Service[E]) Batch(ctx context.Context, model *BatchModel[E]) (*BatchResult, error) {
	if model == nil {
		return nil, ErrNilEntities
	}
	result := &BatchResult{}
	err := s.write(ctx, func(ctx context.Context, repo repository.Repository[E]) error {
		if model.Delete != nil {
			found, err := repo.FindAllByID(ctx, model.Delete)
			if err != nil {
				return err
			}
			n, err := repo.DeleteEntities(ctx, found)
			if err != nil {
				return err
			}
			result.Deleted = &DeleteOutcome{Requested: len(model.Delete), Deleted: n}
		}

		if model.Update != nil {
			outcome := &UpdateOutcome{IDs: []string{}}
			for _, id := range slices.Sorted(maps.Keys(model.Update)) {
				updated, err := s.update(ctx, repo, id, model.Update[id])
				if err != nil {
					return err
				}
				if updated == nil {
					outcome.Missing = append(outcome.Missing, id)
					continue
				}
				outcome.IDs = append(outcome.IDs, id)
			}
			result.Updated = outcome
		}

		if model.Create != nil {
			if err := s.saveAll(ctx, repo, model.Create); err != nil {
				return err
			}
			outcome := &CreateOutcome{IDs: make([]string, 0, len(model.Create))}
			for _, e := range model.Create {
				outcome.IDs = append(outcome.IDs, s.table.Audit(e).GetID())
			}
			result.Created = outcome
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("batch applied",
		zap.String("table", s.table.Name()),
		zap.String("actor", entity.ActorFromContext(ctx)),
		zap.Any("result", result),
	)
	return result, nil
}
