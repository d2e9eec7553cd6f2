package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestDescribeSQL(t *testing.T) {
	cases := []struct{ sql, op, table string }{
		{`SELECT * FROM "invoices" WHERE id = $1`, "SELECT", "invoices"},
		{"  insert into `invoice_lines` values (1)", "INSERT", "invoice_lines"},
		{`UPDATE "invoices" SET status = 'VOID'`, "UPDATE", "invoices"},
		{`DELETE FROM invoice_lines WHERE invoice_id = 7`, "DELETE", "invoice_lines"},
		{"", "UNKNOWN", ""},
		{"VACUUM", "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core))
	fc := func() (string, int64) { return `SELECT * FROM "invoices"`, 1 }

	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, logs.Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	if assert.Equal(t, 1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal(t, "db.query", entry.Message)
		assert.Equal(t, "db", entry.LoggerName)
		assert.Equal(t, "invoices", entry.ContextMap()["table"])
	}

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, zap.WarnLevel, logs.All()[1].Level)
}

func TestGormLogger_Silent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), WithGormLevel(gormlogger.Silent))

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	l.LogMode(gormlogger.Info).Info(context.Background(), "hello")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}
