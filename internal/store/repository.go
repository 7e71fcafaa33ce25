package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	eventbus "github.com/hanpama/membergraph/internal/eventbus"
	events "github.com/hanpama/membergraph/internal/events"
)

// Repository reads and writes one entity table. K is the primary key type.
type Repository[T any, K comparable] struct {
	db      *gorm.DB
	entity  string
	order   string
	cascade func(tx *gorm.DB, id K) error
}

func newRepository[T any, K comparable](db *gorm.DB, entity, order string) *Repository[T, K] {
	return &Repository[T, K]{db: db, entity: entity, order: order}
}

// FindAll returns every row in a stable order.
func (r *Repository[T, K]) FindAll(ctx context.Context) (rows []*T, err error) {
	done := r.observe(ctx, "findAll")
	defer func() { done(len(rows), err) }()

	err = r.db.WithContext(ctx).Order(r.order).Find(&rows).Error
	return rows, r.translate(err)
}

// FindByID returns the row with the given key or a NOT_FOUND error.
func (r *Repository[T, K]) FindByID(ctx context.Context, id K) (row *T, err error) {
	done := r.observe(ctx, "findById")
	defer func() { done(count(row), err) }()

	row = new(T)
	if err = r.db.WithContext(ctx).Where("id = ?", id).Take(row).Error; err != nil {
		return nil, r.translate(err)
	}
	return row, nil
}

// FindManyBy returns the rows whose column equals value.
func (r *Repository[T, K]) FindManyBy(ctx context.Context, column string, value any) (rows []*T, err error) {
	done := r.observe(ctx, "findManyBy")
	defer func() { done(len(rows), err) }()

	err = r.db.WithContext(ctx).Where(map[string]any{column: value}).Order(r.order).Find(&rows).Error
	return rows, r.translate(err)
}

// FindManyIn returns the rows whose column matches any of values.
func (r *Repository[T, K]) FindManyIn(ctx context.Context, column string, values []any) (rows []*T, err error) {
	done := r.observe(ctx, "findManyIn")
	defer func() { done(len(rows), err) }()

	if len(values) == 0 {
		return nil, nil
	}
	err = r.db.WithContext(ctx).Where(map[string]any{column: values}).Order(r.order).Find(&rows).Error
	return rows, r.translate(err)
}

// Create inserts row and returns it with generated columns filled in.
func (r *Repository[T, K]) Create(ctx context.Context, row *T) (_ *T, err error) {
	done := r.observe(ctx, "create")
	defer func() { done(1, err) }()

	if err = r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return nil, r.translate(err)
	}
	return row, nil
}

// Update sets the given columns of the row with key id and returns the
// updated row. An empty fields map only checks that the row exists.
func (r *Repository[T, K]) Update(ctx context.Context, id K, fields map[string]any) (row *T, err error) {
	if len(fields) > 0 {
		done := r.observe(ctx, "update")
		res := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
		err = r.translate(res.Error)
		if err == nil && res.RowsAffected == 0 {
			err = r.notFound()
		}
		done(int(res.RowsAffected), err)
		if err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the row with key id together with its dependent rows.
func (r *Repository[T, K]) Delete(ctx context.Context, id K) (err error) {
	done := r.observe(ctx, "delete")
	var affected int64
	defer func() { done(int(affected), err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.cascade != nil {
			if err := r.cascade(tx, id); err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return r.translate(err)
}

func (r *Repository[T, K]) translate(err error) error { return translate(err, r.entity) }

func (r *Repository[T, K]) notFound() error { return translate(gorm.ErrRecordNotFound, r.entity) }

func (r *Repository[T, K]) observe(ctx context.Context, op string) func(rows int, err error) {
	return observe(ctx, r.entity, op)
}

func observe(ctx context.Context, entity, op string) func(rows int, err error) {
	id := uuid.NewString()
	start := time.Now()
	eventbus.Publish(ctx, events.RepositoryStart{CallID: id, Entity: entity, Op: op})
	return func(rows int, err error) {
		eventbus.Publish(ctx, events.RepositoryFinish{
			CallID:   id,
			Entity:   entity,
			Op:       op,
			Rows:     rows,
			Err:      err,
			Duration: time.Since(start),
		})
	}
}

func count[T any](row *T) int {
	if row == nil {
		return 0
	}
	return 1
}
