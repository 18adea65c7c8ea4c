package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gobeaver/folio/auth"
)

// AuthHandler serves the admin login.
type AuthHandler struct {
	auth *auth.Authenticator
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin exchanges admin credentials for a bearer token.
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return NewValidationError("username", "username and password are required")
	}

	resp, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		return err
	}
	return ok(c, resp)
}
