package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/taskboard/internal/logging"
	"github.com/Skotchmaster/taskboard/internal/revocation"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

type BearerAuth struct {
	Secret      []byte
	Revocations revocation.Store
}

func NewBearerAuth(secret []byte, store revocation.Store) *BearerAuth {
	if store == nil {
		store = revocation.Noop{}
	}
	return &BearerAuth{Secret: secret, Revocations: store}
}

// RequireAuth accepts `Authorization: Bearer <access token>` and stores the
// caller's id under CtxUserID.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.Secret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		if claims.IssuedAt != nil {
			revoked, err := m.Revocations.IsRevoked(ctx, userID.String(), claims.IssuedAt.Time)
			if err != nil {
				l.Error("revocation_check_failed", "user_id", userID, "error", err)
			} else if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
			}
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxEmail, claims.Email)
		return next(c)
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
