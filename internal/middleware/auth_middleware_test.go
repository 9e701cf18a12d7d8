package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"greencycle/internal/model"
	"greencycle/internal/repository"
	"greencycle/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	repository.UserRepository
	user *model.User
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, errors.New("record not found")
	}
	return r.user, nil
}

func newUser(privileges ...string) *model.User {
	seen := time.Now()
	u := &model.User{
		LastSeenAt:   &seen,
		Email:        "ana@greencycle.test",
		FullName:     "Ana",
		IsActive:     true,
		TokenVersion: "v2",
		Role:         &model.Role{Code: model.RoleSuperAdmin},
	}
	u.ID = uuid.New()
	for _, p := range privileges {
		u.Privileges = append(u.Privileges, model.Privilege{Code: p})
	}
	return u
}

func newApp(user *model.User) *fiber.App {
	app := fiber.New()
	app.Get("/equity", RequireAuth(&fakeUserRepo{user: user}), RequirePrivilege(model.PrivFinanceView), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_name").(string))
	})
	return app
}

func request(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/equity", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-test")
	user := newUser(model.PrivFinanceView)
	app := newApp(user)

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), nil, "v2")
	require.NoError(t, err)
	stale, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), nil, "v1")
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, request(t, app, token))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, "garbage"))
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, stale))

	user.IsActive = false
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, token))
}

func TestRequireAuth_IdleSession(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-test")
	user := newUser(model.PrivFinanceView)
	app := newApp(user)

	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), nil, "v2")
	require.NoError(t, err)

	stale := time.Now().Add(-model.SessionIdleTimeout - time.Second)
	user.LastSeenAt = &stale
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, token))

	user.LastSeenAt = nil
	assert.Equal(t, fiber.StatusUnauthorized, request(t, app, token))

	fresh := time.Now().Add(-time.Minute)
	user.LastSeenAt = &fresh
	assert.Equal(t, fiber.StatusOK, request(t, app, token))
}

func TestRequireAuth_BadScheme(t *testing.T) {
	app := newApp(newUser())
	req := httptest.NewRequest("GET", "/equity", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequirePrivilege_UsesStoredPrivileges(t *testing.T) {
	t.Setenv("JWT_SECRET", "middleware-test")
	user := newUser(model.PrivSaleView)
	app := newApp(user)

	// the token claims finance:view but the stored user no longer has it
	token, err := jwt.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), []string{model.PrivFinanceView}, "v2")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, request(t, app, token))

	user.Privileges = append(user.Privileges, model.Privilege{Code: model.PrivFinanceView})
	assert.Equal(t, fiber.StatusOK, request(t, app, token))
}
