package auth

import (
	"github.com/labstack/echo/v4"
)

// PrincipalContextKey is where the verification gate stores the caller.
const PrincipalContextKey = "principal"

// Principal is the minimal authenticated identity carried in a token.
type Principal struct {
	ID string `json:"id"`
}

// PrincipalFrom returns the principal the gate attached to c.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(PrincipalContextKey).(Principal)
	return p, ok
}
