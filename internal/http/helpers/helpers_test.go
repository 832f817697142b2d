package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/keyrotor/internal/auth"
	httperrors "github.com/dropDatabas3/keyrotor/internal/http/errors"
	jwtx "github.com/dropDatabas3/keyrotor/internal/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var v struct{ Login string }
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"login":"a"}`))
	r.Header.Set("Content-Type", "application/json")
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "a", v.Login)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := ReadJSON(httptest.NewRecorder(), r, &v)
	assert.ErrorIs(t, err, httperrors.ErrInvalidJSON)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`login=a`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`"`+strings.Repeat("x", maxBodySize)+`"`))
	assert.Equal(t, httperrors.ErrBodyTooLarge, ReadJSON(httptest.NewRecorder(), r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.NoError(t, ReadJSON(httptest.NewRecorder(), r, &v))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(r))
	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", BearerToken(r))
	r.Header.Set("Authorization", "bearer   xyz ")
	assert.Equal(t, "xyz", BearerToken(r))
	r.Header.Set("Authorization", "Basic Zm9v")
	assert.Empty(t, BearerToken(r))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 10.0.0.1")
	assert.Equal(t, "1.1.1.1", ClientIP(r))
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x", nil)
	n, err := QueryInt(r, "limit", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = QueryInt(r, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, err = QueryInt(r, "bad", 0)
	assert.ErrorIs(t, err, httperrors.ErrInvalidParameter)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, jwtx.ErrExpired), 401, "INVALID_CREDENTIALS"},
		{fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, jwtx.ErrUnknownKID), 401, "INVALID_CREDENTIALS"},
		{auth.ErrInvalidRefreshToken, 401, "INVALID_REFRESH_TOKEN"},
		{auth.ErrLoginTaken, 400, "LOGIN_TAKEN"},
		{auth.ErrUserNotFound, 404, "USER_NOT_FOUND"},
		{fmt.Errorf("%w: v9", jwtx.ErrUnknownKey), 404, "KEY_NOT_FOUND"},
		{jwtx.ErrKIDExists, 409, "CONFLICT"},
		{jwtx.ErrNoActiveKey, 503, "NO_ACTIVE_KEY"},
		{errors.New("boom"), 500, "INTERNAL_SERVER_ERROR"},
	}
	for _, c := range cases {
		got := ServiceError(c.err)
		assert.Equal(t, c.status, got.HTTPStatus, c.err.Error())
		assert.Equal(t, c.code, got.Code, c.err.Error())
	}
}

func TestWriteServiceErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, jwtx.ErrBadSignature))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "signature")
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}
