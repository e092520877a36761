// Package dbtest opens isolated in-memory sqlite databases migrated with the
// full model set, for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/iskomart/iskomart-backend/pkg/db"
	"github.com/iskomart/iskomart-backend/pkg/db/models"
)

// Open returns a fresh database private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Client wraps Open in a db.Client for code that needs a tx runner.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

// SeedUser inserts a user with the given username and names.
func SeedUser(t testing.TB, conn *gorm.DB, username, first, last string) models.User {
	t.Helper()
	user := models.User{Username: username, FirstName: first, LastName: last}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// SeedItem inserts an available item priced from a decimal string.
func SeedItem(t testing.TB, conn *gorm.DB, sellerID uuid.UUID, name, price string) models.Item {
	t.Helper()
	item := models.Item{SellerID: sellerID, Name: name, Category: "general", Price: mustDecimal(t, price), Available: true}
	require.NoError(t, conn.Create(&item).Error)
	return item
}
