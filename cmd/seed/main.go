package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/config"
	"github.com/shurale/expense-backend/internal/domain"
	"github.com/shurale/expense-backend/internal/repository/postgres"
	"github.com/shurale/expense-backend/internal/service"
)

// baseCategories is the starter category tree created on first run
var baseCategories = []string{
	"Groceries",
	"Transport",
	"Utilities",
	"Entertainment",
	"Health",
	"Other",
}

// main provisions the default users and base categories. Safe to run
// repeatedly: existing rows are left untouched.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	userService := service.NewUserService(postgres.NewUserRepository(pool))
	categoryRepo := postgres.NewCategoryRepository(pool)

	seedUser(userService, "admin@local", getEnv("SEED_ADMIN_PASSWORD", "admin"), domain.RoleAdmin)
	seedUser(userService, "manager@local", getEnv("SEED_MANAGER_PASSWORD", "manager"), domain.RoleManager)

	for _, name := range baseCategories {
		seedCategory(categoryRepo, name)
	}

	log.Info().Msg("Seed complete")
}

func seedUser(userService *service.UserService, email, password string, role domain.Role) {
	user, err := userService.CreateUser(email, password, role)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to seed user")
	}
	log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("User ready")
}

func seedCategory(repo domain.CategoryRepository, name string) {
	if _, err := repo.GetByName(name); err == nil {
		return
	} else if !errors.Is(err, domain.ErrCategoryNotFound) {
		log.Fatal().Err(err).Str("name", name).Msg("Failed to check category")
	}

	if _, err := repo.Create(&domain.Category{ID: uuid.New(), Name: name, IsActive: true}); err != nil {
		log.Fatal().Err(err).Str("name", name).Msg("Failed to seed category")
	}
	log.Info().Str("name", name).Msg("Category created")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
