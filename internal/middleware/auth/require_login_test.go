package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/taskboard/internal/revocation"
	"github.com/Skotchmaster/taskboard/internal/tokens"
)

var secret = []byte("test-access-secret")

func run(t *testing.T, m *BearerAuth, header string) (uuid.UUID, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen uuid.UUID
	err := m.RequireAuth(func(c echo.Context) error {
		seen = UserID(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func requireStatus(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
}

func TestRequireAuth(t *testing.T) {
	m := NewBearerAuth(secret, nil)
	userID := uuid.New()
	tok, _, err := tokens.NewAccessToken(secret, userID.String(), "a@x.io", time.Minute)
	require.NoError(t, err)

	got, err := run(t, m, "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = run(t, m, "bearer "+tok)
	require.NoError(t, err)

	_, err = run(t, m, "")
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = run(t, m, "Basic abc")
	requireStatus(t, err, http.StatusUnauthorized)

	other, _, err := tokens.NewAccessToken([]byte("other"), userID.String(), "", time.Minute)
	require.NoError(t, err)
	_, err = run(t, m, "Bearer "+other)
	requireStatus(t, err, http.StatusUnauthorized)

	expired, _, err := tokens.NewAccessToken(secret, userID.String(), "", -time.Minute)
	require.NoError(t, err)
	_, err = run(t, m, "Bearer "+expired)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestRequireAuth_RevokedBeforeLogout(t *testing.T) {
	store := revocation.NewMemory()
	m := NewBearerAuth(secret, store)
	userID := uuid.New()
	tok, _, err := tokens.NewAccessToken(secret, userID.String(), "", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.RevokeBefore(context.Background(), userID.String(), time.Now().Add(2*time.Second), time.Minute))

	_, err = run(t, m, "Bearer "+tok)
	requireStatus(t, err, http.StatusUnauthorized)
}
