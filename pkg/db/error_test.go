package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		duplicate     bool
		serialization bool
	}{
		{"nil", nil, false, false},
		{"gorm duplicate", gorm.ErrDuplicatedKey, true, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, true, false},
		{"pg wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true, false},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, false, true},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, false, true},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, true, false},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, false, true},
		{"sqlite unique", errors.New("UNIQUE constraint failed: invoices.number"), true, false},
		{"sqlite busy", errors.New("database is locked"), false, true},
		{"other", errors.New("connection refused"), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.duplicate, IsDuplicateKeyErr(tc.err))
			assert.Equal(t, tc.serialization, IsSerializationErr(tc.err))
			assert.Equal(t, tc.duplicate || tc.serialization, IsRetryable(tc.err))
		})
	}
}
