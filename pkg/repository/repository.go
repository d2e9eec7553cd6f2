// Package repository provides a generic gorm-backed store. Zero-valued
// fields of a query struct are ignored, so a query matches on whatever
// the caller set.
package repository

import (
	"context"

	"github.com/smallbiznis/warehouse/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	// FindOne returns nil, nil when no row matches.
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
	// UpdateColumns writes only the named columns of values onto the row
	// identified by model's primary key.
	UpdateColumns(ctx context.Context, model *T, values *T, columns ...string) error
	// DeleteWhere refuses an empty query instead of deleting the table.
	DeleteWhere(ctx context.Context, query *T) error
}

func ProvideStore[T any](db *gorm.DB) Repository[T] {
	return &store[T]{db: db}
}
