package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hemoscan/internal/config"
	"hemoscan/internal/db"
	"hemoscan/internal/service"
)

func main() {
	cmd := &cli.Command{
		Name:  "hemoscanctl",
		Usage: "Operator tasks for the HemoScan backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "Path to a .env file loaded before HEMOSCAN_* variables are read",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := godotenv.Load(cmd.String("env-file")); err != nil {
				log.Printf("warning: loading %s: %v", cmd.String("env-file"), err)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the embedded SQL migrations (postgres store only)",
				Action: runMigrate,
			},
			{
				Name:   "ping",
				Usage:  "Check connectivity with the configured store",
				Action: runPing,
			},
			{
				Name:  "revoke-sessions",
				Usage: "Clear the live refresh token of a user, forcing a new login",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email, exactly as registered",
						Required: true,
					},
				},
				Action: runRevokeSessions,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrate requires HEMOSCAN_STORE=%s, got %q", config.StorePostgres, cfg.Store)
	}
	stores, err := db.Open(ctx, cfg, zap.NewNop(), true)
	if err != nil {
		return err
	}
	defer stores.Close(ctx)
	fmt.Println("migrations applied")
	return nil
}

func runPing(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	stores, err := db.Open(ctx, cfg, zap.NewNop(), false)
	if err != nil {
		return err
	}
	defer stores.Close(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := stores.Pinger.Ping(pingCtx); err != nil {
		return fmt.Errorf("%s ping: %w", cfg.Store, err)
	}
	fmt.Printf("%s: connected\n", cfg.Store)
	return nil
}

func runRevokeSessions(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	stores, err := db.Open(ctx, cfg, zap.NewNop(), false)
	if err != nil {
		return err
	}
	defer stores.Close(ctx)

	sessions := service.NewSessionService(
		zap.NewNop(),
		stores.Users,
		service.NewBcryptHasher(bcrypt.DefaultCost),
		service.NewTokenCodec(cfg.JWTSecret),
		nil,
		nil,
		service.SessionConfig{},
	)
	email := cmd.String("email")
	if err := sessions.RevokeSessions(ctx, email); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return fmt.Errorf("email is required")
		}
		return fmt.Errorf("revoke sessions for %s: %w", email, err)
	}
	fmt.Printf("sessions revoked for %s\n", email)
	return nil
}
