package option

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type row struct {
	ID        int64
	Name      string
	CreatedAt int64
}

func TestQueryOptions(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:option?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create([]row{
		{ID: 1, Name: "b", CreatedAt: 10},
		{ID: 2, Name: "a", CreatedAt: 20},
		{ID: 3, Name: "c", CreatedAt: 30},
	}).Error)

	var rows []row
	stmt := db.Model(&row{})
	stmt = ApplyOperator(Condition{Field: "created_at", Operator: GTE, Value: 20}).Apply(stmt)
	stmt = WithSortBy(WithQuerySortBy("name", "asc", map[string]bool{"name": true})).Apply(stmt)
	require.NoError(t, stmt.Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].Name)
	assert.Equal(t, "c", rows[1].Name)

	rows = nil
	stmt = WithSortBy(WithQuerySortBy("drop table", "", map[string]bool{"name": true})).Apply(db.Model(&row{}))
	stmt = WithLimit(1).Apply(stmt)
	require.NoError(t, stmt.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].ID)
}
