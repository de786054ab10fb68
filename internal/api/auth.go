package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ppiankov/nyaya/internal/model"
	"go.uber.org/zap"
)

// Login authenticates with email and password and stores the session
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var resp model.LoginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      map[string]string{"email": email, "password": password},
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.startSession(ctx, resp)
}

// Signup registers a new account; the backend logs the user in directly
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.User, error) {
	var resp model.LoginResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/signup",
		body:      req,
		anonymous: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.AccessToken == "" {
		// Accounts that need email verification get no tokens yet
		if resp.User != nil {
			return resp.User, nil
		}
		return &model.User{Email: req.Email, Name: req.Name, Profession: req.Profession}, nil
	}
	return c.startSession(ctx, resp)
}

func (c *Client) startSession(ctx context.Context, resp model.LoginResponse) (*model.User, error) {
	if resp.AccessToken == "" {
		return nil, &Error{Kind: KindAuth, Message: "login response carried no access token"}
	}

	if err := c.session.Authenticate(resp.Tokens, resp.User); err != nil {
		return nil, err
	}

	if resp.User != nil {
		return resp.User, nil
	}

	user, err := c.Me(ctx)
	if err != nil {
		// The session is valid even if the profile could not be loaded
		c.logger.Warn("load profile after login failed", zap.Error(err))
		return nil, nil
	}
	return user, nil
}

// Refresh forces a token refresh. A failed refresh clears the session and
// returns an error wrapping ErrLoginRequired.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx, c.session.AccessToken())
}

// Logout revokes the refresh token on the server (best effort) and clears
// local credentials regardless of the outcome
func (c *Client) Logout(ctx context.Context) error {
	var serverErr error
	if refreshToken := c.session.RefreshToken(); refreshToken != "" {
		serverErr = c.do(ctx, request{
			method:    http.MethodPost,
			path:      "/auth/logout",
			body:      map[string]string{"refresh_token": refreshToken},
			anonymous: true,
		}, nil)
	}

	if err := c.session.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return serverErr
}

// Me loads the authenticated user's profile and caches it in the session
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me"}, &user); err != nil {
		return nil, err
	}
	if err := c.session.SetUser(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Sessions lists the user's active sessions
func (c *Client) Sessions(ctx context.Context) ([]model.SessionInfo, error) {
	var page model.Page[model.SessionInfo]
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/sessions"}, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// RevokeSession signs out one of the user's sessions
func (c *Client) RevokeSession(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/auth/sessions/" + url.PathEscape(id),
	}, nil)
}
