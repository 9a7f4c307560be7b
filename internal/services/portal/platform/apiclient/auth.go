package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
)

// LoginResult is the POST /auth/login response. Only Token is relied on; the
// profile is always re-fetched from /auth/me.
type LoginResult struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &result); err != nil {
		return LoginResult{}, err
	}
	result.Token = strings.TrimSpace(result.Token)
	if result.Token == "" {
		return LoginResult{}, &Error{Status: http.StatusOK, Message: "login response did not include a token"}
	}
	return result, nil
}

// CurrentUser returns the profile owning the context token.
func (c *Client) CurrentUser(ctx context.Context) (identity.Profile, error) {
	var profile identity.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &profile); err != nil {
		return identity.Profile{}, err
	}
	if !profile.UserType.Valid() {
		return identity.Profile{}, errors.New("current user has unknown user_type " + string(profile.UserType))
	}
	return profile, nil
}

// UpdateProfile sends payload to PUT /auth/me and returns the raw response.
func (c *Client) UpdateProfile(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/auth/me", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}
