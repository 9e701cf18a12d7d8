package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"greencycle/internal/service"
	"greencycle/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthService struct {
	service.AuthService
	err error
}

func (s *stubAuthService) Login(req *service.LoginRequest) (*service.LoginResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &service.LoginResponse{Token: "t"}, nil
}

func (s *stubAuthService) ResetPassword(req *service.ResetPasswordRequest) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	return s.err
}

func postJSON(t *testing.T, app *fiber.App, path, body string) int {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func newAuthApp(svc service.AuthService) *fiber.App {
	app := fiber.New()
	h := NewAuthHandler(svc)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/reset-password", h.ResetPassword)
	return app
}

func TestLogin_Statuses(t *testing.T) {
	ok := newAuthApp(&stubAuthService{})
	assert.Equal(t, fiber.StatusOK, postJSON(t, ok, "/auth/login", `{"email":"ana@greencycle.test","password":"secret"}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, ok, "/auth/login", `{"email":"ana@greencycle.test"}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, ok, "/auth/login", `{`))

	denied := newAuthApp(&stubAuthService{err: service.ErrInvalidCredentials})
	assert.Equal(t, fiber.StatusUnauthorized, postJSON(t, denied, "/auth/login", `{"email":"ana@greencycle.test","password":"nope"}`))

	inactive := newAuthApp(&stubAuthService{err: service.ErrUserInactive})
	assert.Equal(t, fiber.StatusUnauthorized, postJSON(t, inactive, "/auth/login", `{"email":"ana@greencycle.test","password":"secret"}`))
}

func TestResetPassword_Statuses(t *testing.T) {
	body := `{"email":"ana@greencycle.test","old_password":"old","new_password":"newpass"}`

	assert.Equal(t, fiber.StatusOK, postJSON(t, newAuthApp(&stubAuthService{}), "/auth/reset-password", body))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, newAuthApp(&stubAuthService{}), "/auth/reset-password",
		`{"email":"ana@greencycle.test","old_password":"old","new_password":"123"}`))
	assert.Equal(t, fiber.StatusBadRequest, postJSON(t, newAuthApp(&stubAuthService{err: service.ErrWrongPassword}), "/auth/reset-password", body))
	assert.Equal(t, fiber.StatusUnauthorized, postJSON(t, newAuthApp(&stubAuthService{err: service.ErrInvalidCredentials}), "/auth/reset-password", body))
}
