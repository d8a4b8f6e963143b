package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/repository"
	"github.com/noah-isme/teacher-feedback-api/pkg/config"
	"github.com/noah-isme/teacher-feedback-api/pkg/database"
	"github.com/noah-isme/teacher-feedback-api/pkg/logger"
)

type adminStore interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
}

type rosterStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, teacher *models.Teacher) error
}

// sampleRoster is the demo roster a fresh installation starts with.
var sampleRoster = []models.Teacher{
	{Name: "Shweta Kaushik", Department: "Computer Science", Subject: "Web Technology"},
	{Name: "Tripti Pandey", Department: "Computer Science", Subject: "Machine Learning Techniques"},
	{Name: "Ayush Aggarwal", Department: "Computer Science", Subject: "DBMS"},
	{Name: "Shaili Gupta", Department: "Computer Science", Subject: "OOSD"},
	{Name: "Shalini Singh", Department: "Computer Science", Subject: "DAA"},
	{Name: "Bharat Bhardwaj", Department: "Computer Science", Subject: "COA"},
	{Name: "Sanjeev Soni", Department: "Computer Science", Subject: "FSD"},
	{Name: "Pratik Singh", Department: "Computer Science", Subject: "DSA"},
	{Name: "Meenakshi Vishnoi", Department: "Computer Science", Subject: "OOPs with Java"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if _, err := database.Migrate(db); err != nil {
		logr.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, repository.NewUserRepository(db), repository.NewTeacherRepository(db), cfg.Seed, logr); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
	logr.Info("seed complete")
}

func seed(ctx context.Context, users adminStore, teachers rosterStore, cfg config.SeedConfig, logr *zap.Logger) error {
	if err := seedAdmin(ctx, users, cfg, logr); err != nil {
		return err
	}
	if !cfg.SampleRoster {
		return nil
	}
	return seedRoster(ctx, teachers, logr)
}

func seedAdmin(ctx context.Context, users adminStore, cfg config.SeedConfig, logr *zap.Logger) error {
	admins, err := users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins > 0 {
		logr.Info("admin account present; skipping", zap.Int("admins", admins))
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || len(cfg.AdminPassword) < 6 {
		return fmt.Errorf("SEED_ADMIN_EMAIL and a SEED_ADMIN_PASSWORD of at least 6 characters are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := strings.TrimSpace(cfg.AdminName)
	if name == "" {
		name = "Administrator"
	}
	admin := &models.User{Email: email, PasswordHash: string(hash), Name: name, Role: models.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logr.Info("admin account created", zap.String("email", email))
	return nil
}

func seedRoster(ctx context.Context, teachers rosterStore, logr *zap.Logger) error {
	count, err := teachers.Count(ctx)
	if err != nil {
		return fmt.Errorf("count teachers: %w", err)
	}
	if count > 0 {
		logr.Info("roster present; skipping sample teachers", zap.Int("teachers", count))
		return nil
	}

	for _, t := range sampleRoster {
		entry := t
		if err := teachers.Create(ctx, &entry); err != nil {
			return fmt.Errorf("create teacher %s: %w", t.Name, err)
		}
	}
	logr.Info("sample roster created", zap.Int("teachers", len(sampleRoster)))
	return nil
}
