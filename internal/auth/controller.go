package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dlux/internal/types"

	"github.com/go-resty/resty/v2"
)

const (
	tokenPath = "/oauth2/token"

	MsgControllerUnreachable = "Unable to connect to the controller."
	MsgAuthenticationFailed  = "Authentication failed."
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ControllerAuthenticator exchanges the credentials for a token at the
// selected controller's token endpoint.
type ControllerAuthenticator struct {
	client *resty.Client
}

func NewControllerAuthenticator(timeout time.Duration) *ControllerAuthenticator {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &ControllerAuthenticator{client: client}
}

func (a *ControllerAuthenticator) Authenticate(ctx context.Context, username, password, controller string) (*types.User, error) {
	controller = strings.TrimRight(strings.TrimSpace(controller), "/")
	if controller == "" {
		return nil, errors.New("no controller selected")
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   username,
			"password":   password,
			"scope":      "sdn",
		}).
		SetResult(&tokenResponse{}).
		Post(controller + tokenPath)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(MsgControllerUnreachable, fmt.Errorf("token request to %s: %w", controller, err))
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
		return nil, NewError(MsgInvalidCredentials, fmt.Errorf("controller %s answered %d", controller, resp.StatusCode()))
	default:
		return nil, NewError(MsgAuthenticationFailed, fmt.Errorf("controller %s answered %d", controller, resp.StatusCode()))
	}

	token, ok := resp.Result().(*tokenResponse)
	if !ok || token.AccessToken == "" {
		return nil, NewError(MsgAuthenticationFailed, fmt.Errorf("controller %s returned no access token", controller))
	}
	return types.NewUser(username, controller, token.AccessToken), nil
}
