package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/pkg/config"
)

type fakeUsers struct {
	admins  int
	created []*models.User
}

func (f *fakeUsers) CountByRole(context.Context, models.UserRole) (int, error) {
	return f.admins, nil
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.created = append(f.created, user)
	return nil
}

type fakeRoster struct {
	existing int
	created  []*models.Teacher
}

func (f *fakeRoster) Count(context.Context) (int, error) {
	return f.existing + len(f.created), nil
}

func (f *fakeRoster) Create(_ context.Context, teacher *models.Teacher) error {
	f.created = append(f.created, teacher)
	return nil
}

func TestSeedCreatesAdminAndRoster(t *testing.T) {
	users := &fakeUsers{}
	roster := &fakeRoster{}
	cfg := config.SeedConfig{AdminEmail: " Admin@Edu.com ", AdminPassword: "admin123", SampleRoster: true}

	require.NoError(t, seed(context.Background(), users, roster, cfg, zap.NewNop()))

	require.Len(t, users.created, 1)
	admin := users.created[0]
	assert.Equal(t, "admin@edu.com", admin.Email)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Administrator", admin.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))
	assert.Len(t, roster.created, 9)

	// second run is a no-op
	users.admins = 1
	require.NoError(t, seed(context.Background(), users, roster, cfg, zap.NewNop()))
	assert.Len(t, users.created, 1)
	assert.Len(t, roster.created, 9)
}

func TestSeedRejectsWeakAdminPassword(t *testing.T) {
	err := seed(context.Background(), &fakeUsers{}, &fakeRoster{}, config.SeedConfig{AdminEmail: "a@edu.com", AdminPassword: "123"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSeedSkipsRosterWhenDisabled(t *testing.T) {
	roster := &fakeRoster{}
	require.NoError(t, seed(context.Background(), &fakeUsers{admins: 1}, roster, config.SeedConfig{}, zap.NewNop()))
	assert.Empty(t, roster.created)
}
