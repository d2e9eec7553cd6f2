package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID    int64 `gorm:"primaryKey"`
	Group string
	Name  string
	Qty   int
}

func openStore(t *testing.T) (*gorm.DB, Repository[widget]) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db, ProvideStore[widget](db)
}

func TestStoreFindAndCount(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)

	require.NoError(t, s.BatchCreate(ctx, []*widget{
		{ID: 1, Group: "a", Name: "bolt", Qty: 3},
		{ID: 2, Group: "a", Name: "nut", Qty: 5},
		{ID: 3, Group: "b", Name: "washer", Qty: 1},
	}))

	rows, err := s.Find(ctx, &widget{Group: "a"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	n, err := s.Count(ctx, &widget{Group: "b"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	one, err := s.FindOne(ctx, &widget{ID: 2})
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "nut", one.Name)

	missing, err := s.FindOne(ctx, &widget{ID: 99})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreUpdateColumns(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)
	require.NoError(t, s.Create(ctx, &widget{ID: 1, Group: "a", Name: "bolt", Qty: 3}))

	require.NoError(t, s.UpdateColumns(ctx, &widget{ID: 1}, &widget{Name: "ignored", Qty: 0}, "qty"))

	got, err := s.FindOne(ctx, &widget{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "bolt", got.Name)
	assert.Equal(t, 0, got.Qty)
}

func TestStoreDeleteWhere(t *testing.T) {
	ctx := context.Background()
	_, s := openStore(t)
	require.NoError(t, s.BatchCreate(ctx, []*widget{
		{ID: 1, Group: "a"},
		{ID: 2, Group: "b"},
	}))

	require.NoError(t, s.DeleteWhere(ctx, &widget{Group: "a"}))
	assert.ErrorIs(t, s.DeleteWhere(ctx, &widget{}), ErrEmptyQuery)

	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
