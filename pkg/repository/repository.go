package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"crudkit/pkg/dbx"
	"crudkit/pkg/entity"
	"crudkit/pkg/query"
)

type Option func(*options)

type options struct {
	now   func() time.Time
	newID entity.IDGenerator
}

// WithClock sets the time source used for audit stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the generator for ids of new records.
func WithIDGenerator(gen entity.IDGenerator) Option {
	return func(o *options) { o.newID = gen }
}

// NewEntityRepository returns a repository for table running its statements
// on db, which may be a pool or a transaction.
func NewEntityRepository[E any](db dbx.DBTX, table *entity.Table[E], opts ...Option) Repository[E] {
	o := options{now: time.Now, newID: entity.NewID}
	for _, opt := range opts {
		opt(&o)
	}
	return &entityRepository[E]{
		DB:      db,
		table:   table,
		options: o,
		columns: strings.Join(table.ColumnNames(), ", "),
	}
}

type entityRepository[E any] struct {
	DB      dbx.DBTX
	table   *entity.Table[E]
	options options
	columns string
}

func (r *entityRepository[E]) Table() *entity.Table[E] {
	return r.table
}

func (r *entityRepository[E]) FindAll(ctx context.Context, sort query.Sort) ([]*E, error) {
	return r.Find(ctx, nil, sort)
}

func (r *entityRepository[E]) Find(ctx context.Context, where query.Predicate, sort query.Sort) ([]*E, error) {
	orderBy, err := r.orderBy(sort)
	if err != nil {
		return nil, err
	}
	clause, args := query.Where(where)
	q := fmt.Sprintf("SELECT %s FROM %s%s%s", r.columns, r.table.Name(), clause, orderBy)
	return r.selectRows(ctx, q, args...)
}

func (r *entityRepository[E]) FindAllPaginated(ctx context.Context, where query.Predicate, sort query.Sort, pagination Pagination) (*PaginatedResult[E], error) {
	orderBy, err := r.orderBy(sort)
	if err != nil {
		return nil, err
	}

	totalCount, err := r.Count(ctx, where)
	if err != nil {
		return nil, err
	}

	entities := []*E{}
	if totalCount > int64(pagination.Offset) {
		clause, args := query.Where(where)
		q := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT ? OFFSET ?", r.columns, r.table.Name(), clause, orderBy)
		entities, err = r.selectRows(ctx, q, append(args, pagination.Limit, pagination.Offset)...)
		if err != nil {
			return nil, err
		}
	}

	return &PaginatedResult[E]{
		Pagination: pagination,
		TotalCount: totalCount,
		Results:    entities,
	}, nil
}

// FindOne returns the single row matching where, nil when nothing matches
// and ErrNonUniqueResult when more than one row does.
func (r *entityRepository[E]) FindOne(ctx context.Context, where query.Predicate) (*E, error) {
	clause, args := query.Where(where)
	q := fmt.Sprintf("SELECT %s FROM %s%s LIMIT 2", r.columns, r.table.Name(), clause)
	entities, err := r.selectRows(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	switch len(entities) {
	case 0:
		return nil, nil
	case 1:
		return entities[0], nil
	}
	return nil, ErrNonUniqueResult
}

func (r *entityRepository[E]) Count(ctx context.Context, where query.Predicate) (int64, error) {
	clause, args := query.Where(where)
	var totalCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", r.table.Name(), clause)
	if err := sqlx.GetContext(ctx, r.DB, &totalCount, r.DB.Rebind(countQuery), args...); err != nil {
		return 0, err
	}
	return totalCount, nil
}

func (r *entityRepository[E]) FindByID(ctx context.Context, id string) (*E, error) {
	entities, err := r.FindAllByID(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("%s %s: %w", r.table.Name(), id, ErrNotFound)
	}

	return entities[0], nil
}

func (r *entityRepository[E]) FindAllByID(ctx context.Context, ids []string) ([]*E, error) {
	if len(ids) == 0 {
		return []*E{}, nil
	}
	return r.Find(ctx, query.In(entity.ColumnID, ids), nil)
}

func (r *entityRepository[E]) FindAllByIDNotIn(ctx context.Context, ids []string) ([]*E, error) {
	return r.Find(ctx, query.NotIn(entity.ColumnID, ids), nil)
}

func (r *entityRepository[E]) ExistsByID(ctx context.Context, id string) error {
	n, err := r.Count(ctx, query.Eq(entity.ColumnID, id))
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%s %s: %w", r.table.Name(), id, ErrNotFound)
	}

	return nil
}

// Save inserts e when it has no id and updates it otherwise. Audit fields are
// always stamped here; caller-supplied values are overwritten.
//
// An update is guarded by the version e carries: when the stored version
// differs the update fails with ErrVersionConflict. A record with an id that
// is not stored yet is inserted under that id.
func (r *entityRepository[E]) Save(ctx context.Context, e *E) error {
	audit := r.table.Audit(e)
	now := r.options.now()
	actor := entity.ActorFromContext(ctx)

	if audit.IsNew() {
		audit.ID = r.options.newID()
		return r.insert(ctx, e, now, actor)
	}

	updated, err := r.update(ctx, e, now, actor)
	if err != nil || updated {
		return err
	}

	err = r.ExistsByID(ctx, audit.ID)
	switch {
	case err == nil:
		return fmt.Errorf("%s %s version %s: %w", r.table.Name(), audit.ID, formatVersion(audit.Version), ErrVersionConflict)
	case errors.Is(err, ErrNotFound):
		return r.insert(ctx, e, now, actor)
	default:
		return err
	}
}

func (r *entityRepository[E]) SaveAll(ctx context.Context, entities []*E) error {
	for _, e := range entities {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *entityRepository[E]) insert(ctx context.Context, e *E, now time.Time, actor string) error {
	r.table.Audit(e).StampCreated(now, actor)

	var (
		columns []string
		values  []any
	)
	// Absent columns are left out so database defaults apply.
	for _, c := range r.table.Columns() {
		if c.IsAbsent(e) {
			continue
		}
		columns = append(columns, c.DB)
		values = append(values, c.Value(e))
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.table.Name(), strings.Join(columns, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), values...)
	return translate(err)
}

// update writes the present, updatable columns of e. It reports false when
// no row matched the id and version.
func (r *entityRepository[E]) update(ctx context.Context, e *E, now time.Time, actor string) (bool, error) {
	audit := r.table.Audit(e)
	expected := audit.Version
	audit.StampUpdated(now, actor)

	var (
		sets   []string
		values []any
	)
	for _, c := range r.table.Columns() {
		if !c.Updatable || c.IsAbsent(e) {
			continue
		}
		sets = append(sets, c.DB+" = ?")
		values = append(values, c.Value(e))
	}
	sets = append(sets,
		entity.ColumnUpdateTime+" = ?",
		entity.ColumnVersion+" = COALESCE("+entity.ColumnVersion+", 0) + 1",
	)
	values = append(values, now)
	if audit.UpdateBy != nil {
		sets = append(sets, entity.ColumnUpdateBy+" = ?")
		values = append(values, *audit.UpdateBy)
	}

	where := query.Eq(entity.ColumnID, audit.ID)
	if expected != nil {
		where = query.And(where, query.Eq(entity.ColumnVersion, *expected))
	}
	clause, args := query.Where(where)

	q := fmt.Sprintf("UPDATE %s SET %s%s", r.table.Name(), strings.Join(sets, ", "), clause)
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), append(values, args...)...)
	if err != nil {
		return false, translate(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if expected != nil {
		next := *expected + 1
		audit.Version = &next
		return true, nil
	}

	// Unchecked update: the stored version was unknown, possibly NULL.
	var version int64
	q = fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", entity.ColumnVersion, r.table.Name(), entity.ColumnID)
	if err := sqlx.GetContext(ctx, r.DB, &version, r.DB.Rebind(q), audit.ID); err != nil {
		return false, err
	}
	audit.Version = &version
	return true, nil
}

// UpdateEnabled sets the enabled flag of one row and returns the number of
// rows affected.
func (r *entityRepository[E]) UpdateEnabled(ctx context.Context, id string, enabled bool) (int64, error) {
	sets := []string{
		entity.ColumnEnabled + " = ?",
		entity.ColumnUpdateTime + " = ?",
		entity.ColumnVersion + " = COALESCE(" + entity.ColumnVersion + ", 0) + 1",
	}
	values := []any{enabled, r.options.now()}
	if actor := entity.ActorFromContext(ctx); actor != "" {
		sets = append(sets, entity.ColumnUpdateBy+" = ?")
		values = append(values, actor)
	}

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", r.table.Name(), strings.Join(sets, ", "), entity.ColumnID)
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), append(values, id)...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *entityRepository[E]) DeleteByID(ctx context.Context, id string) error {
	_, err := r.DeleteByIDs(ctx, []string{id})
	return err
}

func (r *entityRepository[E]) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	q, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE %s IN (?)", r.table.Name(), entity.ColumnID), ids)
	if err != nil {
		return 0, err
	}
	result, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *entityRepository[E]) DeleteAll(ctx context.Context) (int64, error) {
	q := fmt.Sprintf("DELETE FROM %s", r.table.Name())
	result, err := r.DB.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *entityRepository[E]) DeleteEntities(ctx context.Context, entities []*E) (int64, error) {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		if id := r.table.Audit(e).GetID(); id != "" {
			ids = append(ids, id)
		}
	}
	return r.DeleteByIDs(ctx, ids)
}

func (r *entityRepository[E]) DeleteEntity(ctx context.Context, e *E) error {
	_, err := r.DeleteEntities(ctx, []*E{e})
	return err
}

func (r *entityRepository[E]) selectRows(ctx context.Context, q string, args ...any) ([]*E, error) {
	rows, err := r.DB.QueryxContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []*E{}
	for rows.Next() {
		e := r.table.New()
		if err := rows.Scan(r.table.ScanDest(e)...); err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// orderBy renders sort as an ORDER BY clause, resolving logical names
// through the table.
func (r *entityRepository[E]) orderBy(sort query.Sort) (string, error) {
	if len(sort) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(sort))
	for _, o := range sort {
		c, ok := r.table.Column(o.Property)
		if !ok {
			return "", fmt.Errorf("%w: unknown property %q", ErrInvalidSort, o.Property)
		}
		dir := query.Direction(strings.ToUpper(string(o.Direction)))
		switch dir {
		case "":
			dir = query.Asc
		case query.Asc, query.Desc:
		default:
			return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, o.Direction)
		}
		parts = append(parts, c.DB+" "+string(dir))
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func formatVersion(v *int64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprint(*v)
}
