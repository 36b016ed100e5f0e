// Command create-super-admin (re)creates the bootstrap SUPER_ADMIN account. Any
// account already using the email is removed together with its ratings.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"user-reputation-service/cmd/api/infrastructure"
	"user-reputation-service/internal/adapter/db/gormdb"
	"user-reputation-service/internal/config"
	"user-reputation-service/internal/domain/role"
	"user-reputation-service/internal/domain/user"
	"user-reputation-service/pkg/logger"
	"user-reputation-service/pkg/security"
)

type options struct {
	Email    string `validate:"required,email,max=180"`
	Name     string `validate:"required,notblank"`
	Phone    string `validate:"required,phone"`
	Password string `validate:"required,min=8,max=72"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("create-super-admin: %v", err)
	}
}

func run(args []string) error {
	var opts options
	fs := pflag.NewFlagSet("create-super-admin", pflag.ContinueOnError)
	fs.StringVar(&opts.Email, "email", "", "email of the super administrator")
	fs.StringVar(&opts.Name, "name", "Super Admin", "display name")
	fs.StringVar(&opts.Phone, "phone", "", "8-digit phone number")
	fs.StringVar(&opts.Password, "password", os.Getenv("SUPER_ADMIN_PASSWORD"), "password (defaults to $SUPER_ADMIN_PASSWORD)")
	configPath := fs.String("config", envOr("CONFIG_PATH", "."), "directory holding app.env")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := security.NewValidator().Struct(opts); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.NewWithConfig(logger.Config{
		Level:          cfg.Logger.Level,
		Format:         cfg.Logger.Format,
		ServiceName:    "create-super-admin",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Env,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	db, dialect, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = infrastructure.CloseDatabase(db) }()

	hash, err := security.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(opts.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := gormdb.NewUserRepo(db, dialect, l)
	id, err := repo.ReplaceByEmail(ctx, &user.User{
		Email:        opts.Email,
		Name:         opts.Name,
		PhoneNumber:  opts.Phone,
		PasswordHash: hash,
		Roles:        role.NewSet(role.SuperAdmin),
		IsVerified:   true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	l.Info("super administrator ready", zap.Int64("id", id), zap.String("email", opts.Email))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
