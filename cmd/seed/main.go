package main

import (
	"context"
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"clinicore/internal/config"
	"clinicore/internal/db"
	apperrors "clinicore/internal/errors"
	"clinicore/internal/model"
	"clinicore/internal/repository"
)

// Seeds the initial admin account so the admin-gated user endpoints are
// reachable on a fresh database. Safe to run repeatedly.
func main() {
	log.Println("Starting seed script...")

	email := os.Getenv("ADMIN_EMAIL")
	name := os.Getenv("ADMIN_NAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	if name == "" {
		name = "Administrator"
	}

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	repo := repository.NewUserRepository(gormDB)

	if existing, err := repo.FindByEmail(ctx, email); err == nil && existing != nil {
		log.Printf("Admin user %s already present (id=%d), nothing to do", email, existing.ID)
		return
	} else if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		log.Fatalf("Failed to check admin user: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := repo.Create(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user %s created (id=%d)", email, admin.ID)
}
