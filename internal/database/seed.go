package database

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/models"
)

// EnsureAdminAccount creates the bootstrap admin user when none exists.
// Skipped silently when no admin password is configured.
func EnsureAdminAccount(db *mongo.Database, email, password string) error {
	if strings.TrimSpace(password) == "" {
		log.Println("EnsureAdminAccount: no ADMIN_PASSWORD configured, skipping seed")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := models.User{
		FirstName:    "System",
		LastName:     "Admin",
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := db.Collection("users").InsertOne(ctx, admin); err != nil {
		return err
	}

	log.Println("EnsureAdminAccount: admin account created:", admin.Email)
	return nil
}
