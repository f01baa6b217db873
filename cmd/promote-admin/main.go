package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/casadaesfiha/storefront-backend/internal/users"
	"github.com/casadaesfiha/storefront-backend/pkg/config"
	"github.com/casadaesfiha/storefront-backend/pkg/db"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
	"github.com/joho/godotenv"
)

// promote-admin grants the admin role to an existing account so the
// /api/admin surface is reachable without editing the database by hand.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "promote-admin"})

	_ = godotenv.Load()

	email := flag.String("email", "", "email of the account to promote")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(1)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "promote-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	repo := users.NewRepository(dbClient.DB())
	user, err := repo.PromoteToAdmin(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to promote %s: %v\n", *email, err)
		os.Exit(1)
	}

	fmt.Printf("%s (%s) now has role %s\n", user.Email, user.ID, user.Role)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
