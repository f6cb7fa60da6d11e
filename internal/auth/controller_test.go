package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tokenPath, r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "sdn", r.PostForm.Get("scope"))
		assert.Equal(t, "admin", r.PostForm.Get("username"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestControllerAuthenticatorSuccess(t *testing.T) {
	srv := tokenServer(t, http.StatusCreated, `{"access_token":"abc123","token_type":"Bearer","expires_in":3600}`)
	a := NewControllerAuthenticator(5 * time.Second)

	user, err := a.Authenticate(context.Background(), "admin", "admin", srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Name)
	assert.Equal(t, srv.URL, user.Controller)
	assert.Equal(t, "abc123", user.Token)
}

func TestControllerAuthenticatorStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, message: MsgInvalidCredentials},
		{name: "bad-request", status: http.StatusBadRequest, body: `{}`, message: MsgInvalidCredentials},
		{name: "server-error", status: http.StatusInternalServerError, body: `{}`, message: MsgAuthenticationFailed},
		{name: "no-token", status: http.StatusOK, body: `{"token_type":"Bearer"}`, message: MsgAuthenticationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := tokenServer(t, tc.status, tc.body)
			a := NewControllerAuthenticator(5 * time.Second)

			user, err := a.Authenticate(context.Background(), "admin", "wrong", srv.URL)
			assert.Nil(t, user)
			var authErr *Error
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tc.message, authErr.Message)
		})
	}
}

func TestControllerAuthenticatorUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	a := NewControllerAuthenticator(time.Second)
	_, err := a.Authenticate(context.Background(), "admin", "admin", addr)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, MsgControllerUnreachable, authErr.Message)
}

func TestControllerAuthenticatorNoController(t *testing.T) {
	a := NewControllerAuthenticator(time.Second)
	_, err := a.Authenticate(context.Background(), "admin", "admin", " ")

	var authErr *Error
	require.Error(t, err)
	assert.False(t, errors.As(err, &authErr))
}
