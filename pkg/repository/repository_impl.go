package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/warehouse/pkg/db/option"
	"gorm.io/gorm"
)

// ErrEmptyQuery is returned by DeleteWhere when the query has no conditions.
var ErrEmptyQuery = errors.New("repository: empty delete query")

const batchSize = 200

type store[T any] struct {
	db *gorm.DB
}

func (s *store[T]) query(ctx context.Context, filter *T, opts []option.QueryOption) *gorm.DB {
	stmt := s.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		stmt = stmt.Where(filter)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	return stmt
}

func (s *store[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]*T, error) {
	var rows []*T
	if err := s.query(ctx, filter, opts).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *store[T]) FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error) {
	row := new(T)
	err := s.query(ctx, filter, opts).Take(row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row, nil
}

func (s *store[T]) Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error) {
	var n int64
	err := s.query(ctx, filter, opts).Count(&n).Error
	return n, err
}

func (s *store[T]) Create(ctx context.Context, resource *T) error {
	return s.db.WithContext(ctx).Create(resource).Error
}

func (s *store[T]) BatchCreate(ctx context.Context, resources []*T) error {
	if len(resources) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(resources, batchSize).Error
}

func (s *store[T]) UpdateColumns(ctx context.Context, model *T, values *T, columns ...string) error {
	stmt := s.db.WithContext(ctx).Model(model)
	if len(columns) > 0 {
		stmt = stmt.Select(columns)
	}
	return stmt.Updates(values).Error
}

func (s *store[T]) DeleteWhere(ctx context.Context, filter *T) error {
	stmt := s.db.WithContext(ctx).Where(filter).Delete(new(T))
	if errors.Is(stmt.Error, gorm.ErrMissingWhereClause) {
		return ErrEmptyQuery
	}
	return stmt.Error
}
