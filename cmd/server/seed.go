package main

import (
	"fmt"

	"gym_sales_backend/internal/models"
	"gym_sales_backend/internal/repositories"
	"gym_sales_backend/internal/services"
	"gym_sales_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	demoGymID    int64 = 1
	demoUsername       = "admin"
	demoPassword       = "admin12345"
)

// seedDemoData fills an in-memory store with one gym's catalog and an admin account.
func seedDemoData(store *repositories.MemoryStore) error {
	hash, err := services.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("seeding demo admin: %w", err)
	}
	store.SeedUser(models.User{
		GymID: demoGymID, Username: demoUsername, PasswordHash: hash,
		FullName: utils.NewNullString("Demo Admin"), Role: "admin", IsActive: true,
	})

	serviceCat := store.SeedCategory(models.ProductCategory{GymID: demoGymID, Name: "Services"})
	supplements := store.SeedCategory(models.ProductCategory{GymID: demoGymID, Name: "Supplements"})
	drinks := store.SeedCategory(models.ProductCategory{GymID: demoGymID, Name: "Drinks"})

	defaults := []struct {
		category *models.ProductCategory
		name     string
		price    string
		stock    *int
	}{
		{&serviceCat, "Personal training session", "30.00", nil},
		{&serviceCat, "Day pass", "12.00", nil},
		{&supplements, "Whey protein 1kg", "45.90", intPtr(15)},
		{&supplements, "Protein bar", "2.50", intPtr(120)},
		{&drinks, "Water 0.5l", "1.00", intPtr(200)},
		{&drinks, "Isotonic drink", "2.20", intPtr(60)},
	}
	for _, d := range defaults {
		mode := models.TrackingNone
		if d.stock != nil {
			mode = models.TrackingTracked
		}
		store.SeedProduct(models.Product{
			GymID: demoGymID, CategoryID: &d.category.ID, Name: d.name, Price: decimal.RequireFromString(d.price),
			Status: models.ProductActive, TrackingMode: mode, Stock: d.stock,
		})
	}

	for _, name := range []string{"Cash", "Card", "Bank transfer"} {
		store.SeedPaymentMethod(models.PaymentMethod{GymID: demoGymID, Name: name, Enabled: true})
	}
	store.SeedClient(models.Client{GymID: demoGymID, FullName: "Walk-in Regular"})

	utils.LogInfo("Seeded demo data", map[string]interface{}{"gym_id": demoGymID, "username": demoUsername})
	return nil
}

func intPtr(v int) *int { return &v }
