// Package testutil provides shared database fixtures for tests. Tests run
// against a file-backed sqlite database; the single-connection pool keeps
// concurrent writers serialized the way the postgres row lock does in
// production.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"fooddupe/internal/model"
)

// NewDB opens a migrated sqlite database scoped to the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fooddupe_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// SeedTenant creates an active tenant with the given subdomain
func SeedTenant(t *testing.T, db *gorm.DB, subdomain string) *model.Tenant {
	t.Helper()

	tenant := model.Tenant{
		Name:      subdomain,
		Subdomain: subdomain,
		Status:    model.TenantActive,
		Plan:      "starter",
	}
	require.NoError(t, db.Create(&tenant).Error)
	return &tenant
}

// SeedProduct creates an active product (with its own category) for a tenant
func SeedProduct(t *testing.T, db *gorm.DB, tenantID uint, name, price string) *model.Product {
	t.Helper()

	category := model.Category{TenantID: tenantID, Name: name + " category", Active: true}
	require.NoError(t, db.Create(&category).Error)

	product := model.Product{
		TenantID:   tenantID,
		CategoryID: category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Active:     true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}
