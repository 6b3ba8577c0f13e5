package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var out LoginResult
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Auth + "/api/users/login",
		body:   req,
		out:    &out,
	})
	return out, err
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.endpoints.Auth + "/api/users/register",
		body:   req,
	})
	return err
}

// ListUsers returns every account known to the auth service.
func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var raw json.RawMessage
	if _, err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.endpoints.Auth + "/api/users/users",
		token:  token,
		out:    &raw,
	}); err != nil {
		return nil, err
	}

	return decodeList[User](raw, nil), nil
}

// DeleteUser removes account id.
func (c *Client) DeleteUser(ctx context.Context, token string, id ID) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		url:    c.endpoints.Auth + "/api/users/users/" + url.PathEscape(string(id)),
		token:  token,
	})
	return err
}
