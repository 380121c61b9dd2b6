package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
)

type userRepoStub struct {
	users   map[string]*models.User
	deleted []string
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[string]*models.User{}}
}

func (r *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (r *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *userRepoStub) Create(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *userRepoStub) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *userRepoStub) Delete(ctx context.Context, id string) error {
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func TestUserCreateHashesPassword(t *testing.T) {
	repo := newUserRepoStub()
	audit := &auditRecorder{}
	svc := NewUserService(repo, audit, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Registrar@Campus.edu",
		FullName: "Registrar",
		Role:     models.RoleAdmin,
		Active:   true,
		Password: "secret123",
	}, "actor-1")
	require.NoError(t, err)

	assert.Equal(t, "registrar@campus.edu", user.Email)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionUserCreate, audit.logs[0].Action)
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u1"] = &models.User{ID: "u1", Email: "registrar@campus.edu"}
	svc := NewUserService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "registrar@campus.edu",
		FullName: "Registrar",
		Role:     models.RoleAdmin,
		Password: "secret123",
	}, "actor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "dean@campus.edu",
		FullName: "Dean",
		Role:     "JANITOR",
		Password: "secret123",
	}, "actor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateTogglesActive(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u1"] = &models.User{ID: "u1", Email: "staff@campus.edu", FullName: "Staff", Role: models.RoleStaff, Active: true}
	audit := &auditRecorder{}
	svc := NewUserService(repo, audit, nil, nil)

	inactive := false
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		FullName: "Staff Member",
		Role:     models.RoleStaff,
		Active:   &inactive,
	}, "actor-1")
	require.NoError(t, err)

	assert.False(t, user.Active)
	assert.Equal(t, "Staff Member", user.FullName)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, audit.logs[0].Action)
}

func TestUserDeleteDeactivatesAccount(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["u1"] = &models.User{ID: "u1", Email: "staff@campus.edu", Active: true}
	svc := NewUserService(repo, &auditRecorder{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", "actor-1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)

	err := svc.Delete(context.Background(), "missing", "actor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
