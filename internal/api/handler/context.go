package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ctxIdentity extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - sub must be a valid UUID; it identifies the sender or courier account
//     every ownership check is made against.
func ctxIdentity(c echo.Context) (role string, userID uuid.UUID, err error) {
	role, _ = c.Get("role").(string)
	if role == "" {
		return "", uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	raw, _ := c.Get("user_id").(string)
	userID, parseErr := uuid.Parse(raw)
	if parseErr != nil {
		return "", uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing subject identity")
	}

	return role, userID, nil
}
