package main

import (
	"fooddupe/internal/model"
	"fooddupe/pkg/database"
	"fooddupe/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo data for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}
			log := logger.GetLogger()
			defer log.Sync()

			if err := database.MigrateModels(model.AllModels()...); err != nil {
				return err
			}
			if err := seedDemoData(database.GetDB()); err != nil {
				return err
			}
			log.Info("Demo data loaded")
			return nil
		},
	}
}

func seedDemoData(db *gorm.DB) error {
	var count int64
	db.Model(&model.Tenant{}).Where("subdomain = ?", "pizzamario").Count(&count)
	if count > 0 {
		logger.GetLogger().Info("Demo tenant already present, skipping seed")
		return nil
	}

	tenant := model.Tenant{
		Name:      "Pizza Mario",
		Subdomain: "pizzamario",
		Status:    model.TenantActive,
		Plan:      "starter",
	}
	if err := db.Create(&tenant).Error; err != nil {
		return err
	}

	location := model.Location{
		TenantID: tenant.ID,
		Name:     "Centrum",
		Address:  "Hoofdstraat 12",
		City:     "Amsterdam",
		Phone:    "+31 20 123 4567",
		Active:   true,
	}
	if err := db.Create(&location).Error; err != nil {
		return err
	}

	pizzas := model.Category{TenantID: tenant.ID, Name: "Pizzas", SortOrder: 1, Active: true}
	drinks := model.Category{TenantID: tenant.ID, Name: "Drinks", SortOrder: 2, Active: true}
	if err := db.Create(&pizzas).Error; err != nil {
		return err
	}
	if err := db.Create(&drinks).Error; err != nil {
		return err
	}

	products := []model.Product{
		{TenantID: tenant.ID, CategoryID: pizzas.ID, Name: "Margherita", Price: decimal.RequireFromString("12.50"), Active: true, Popular: true, SortOrder: 1},
		{TenantID: tenant.ID, CategoryID: pizzas.ID, Name: "Pepperoni", Price: decimal.RequireFromString("14.00"), Active: true, SortOrder: 2},
		{TenantID: tenant.ID, CategoryID: pizzas.ID, Name: "Quattro Formaggi", Price: decimal.RequireFromString("15.50"), Active: true, SortOrder: 3},
		{TenantID: tenant.ID, CategoryID: drinks.ID, Name: "Cola", Price: decimal.RequireFromString("2.50"), Active: true, SortOrder: 1},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	password, err := bcrypt.GenerateFromPassword([]byte("changeme123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	users := []model.User{
		{Email: "owner@pizzamario.example", Password: string(password), Name: "Mario", Role: model.RoleOwner, TenantID: &tenant.ID, Active: true},
		{Email: "admin@fooddupe.example", Password: string(password), Name: "Platform Admin", Role: model.RolePlatformAdmin, Active: true},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("Seeded demo tenant",
		zap.String("subdomain", tenant.Subdomain),
		zap.Int("products", len(products)))
	return nil
}
