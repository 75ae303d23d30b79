// Package testdb opens throwaway SQLite databases carrying the full schema.
package testdb

import (
	"testing"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/pkg/db"
	"github.com/curepoint/pharmacy/pkg/hash"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to connect to in-memory db")

	// Every pooled connection to ":memory:" would be a separate empty database.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb, models.All()...), "failed to migrate tables")
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func Medicine(t testing.TB, gdb *gorm.DB, id uint, name, price string) models.Medicine {
	t.Helper()
	m := models.Medicine{ID: id, Name: name, Price: decimal.RequireFromString(price)}
	require.NoError(t, gdb.Create(&m).Error)
	return m
}

func Customer(t testing.TB, gdb *gorm.DB, name, email, password string) models.Customer {
	t.Helper()
	pw, err := hash.HashPassword(password)
	require.NoError(t, err)
	c := models.Customer{Name: name, Email: email, PasswordHash: pw}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

func Employee(t testing.TB, gdb *gorm.DB, id uint, name, pin, designation string, branchID uint) models.Employee {
	t.Helper()
	pinHash, err := hash.HashPassword(pin)
	require.NoError(t, err)
	e := models.Employee{ID: id, Name: name, PinHash: pinHash, Designation: designation, BranchID: branchID}
	require.NoError(t, gdb.Create(&e).Error)
	return e
}

// FailCreates makes every insert into table fail once calls has reached
// after; the first after inserts succeed.
func FailCreates(t testing.TB, gdb *gorm.DB, table string, after int, fail error) {
	t.Helper()
	seen := 0
	name := "testdb:fail_" + table
	err := gdb.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		seen++
		if seen > after {
			_ = tx.AddError(fail)
		}
	})
	require.NoError(t, err)
}

func Count(t testing.TB, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}
