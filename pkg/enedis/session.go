package enedis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
)

// ErrAuthentication is returned when the login form did not yield a session
// cookie, either because the credentials were rejected or because the
// portal's login contract changed.
var ErrAuthentication = errors.New("login unsuccessful, check your credentials")

// AcquireSession returns the persisted session if there is one, without
// contacting the portal and without checking whether it is still valid.
// Otherwise it logs in, persists the new session and returns it.
func (c *Client) AcquireSession(ctx context.Context, username, password string) (types.Session, error) {
	sess, ok, err := c.store.Load(ctx)
	if err != nil {
		return types.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if ok {
		log.Ctx(ctx).DebugContext(ctx, "restored enedis session from store")
		return sess, nil
	}

	log.Ctx(ctx).DebugContext(ctx, "logging in to enedis")
	login, err := c.login(ctx, username, password)
	if err != nil {
		return types.Session{}, err
	}

	jsessionID, err := c.home(ctx, login)
	if err != nil {
		return types.Session{}, err
	}
	if jsessionID == "" {
		// Kept lenient: the session is persisted without it and the first
		// data request decides whether it was usable.
		log.Ctx(ctx).WarnContext(ctx, "enedis home page did not set a JSESSIONID cookie")
	}

	sess = types.Session{
		IPlanetDirectoryPro: login,
		JSESSIONID:          jsessionID,
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return types.Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	log.Ctx(ctx).InfoContext(ctx, "enedis login success", slog.String("username", username))
	return sess, nil
}

// Login acquires a session with the configured credentials.
func (c *Client) Login(ctx context.Context) (types.Session, error) {
	return c.AcquireSession(ctx, c.username, c.password)
}

// login posts the credentials and returns the iPlanetDirectoryPro cookie.
func (c *Client) login(ctx context.Context, username, password string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.LoginBaseURL, c.cfg.LoginPath, nil, c.cfg.loginForm(username, password))
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer drain(resp)

	v := cookieValue(resp, loginCookie)
	if v == "" {
		log.Ctx(ctx).ErrorContext(ctx, "enedis login failed", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w (status %d)", ErrAuthentication, resp.StatusCode)
	}
	return v, nil
}

// home loads the portal home page with the login cookie and returns the
// JSESSIONID cookie it sets, which may be empty.
func (c *Client) home(ctx context.Context, login string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.cfg.APIBaseURL, c.cfg.HomePath, nil, nil)
	if err != nil {
		return "", err
	}
	req.AddCookie(&http.Cookie{Name: loginCookie, Value: login})

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("home request failed: %w", err)
	}
	defer drain(resp)

	log.Ctx(ctx).DebugContext(ctx, "enedis home response", slog.Int("status", resp.StatusCode))
	return cookieValue(resp, sessionCookie), nil
}
