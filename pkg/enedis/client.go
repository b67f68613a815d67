package enedis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/linky/pkg/common"
	"github.com/raterudder/linky/pkg/storage"
)

// Client talks to the Enedis consumer portal. It is meant for a single
// account used by a single caller at a time: nothing coordinates concurrent
// use of the session store.
type Client struct {
	cfg    Config
	client *http.Client
	store  storage.SessionStore

	username string
	password string
}

// NewClient returns a Client for cfg persisting sessions in store. A nil
// httpClient uses the default client. Redirects are never followed because
// the portal hands out its cookies on redirect responses.
func NewClient(cfg Config, store storage.SessionStore, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = common.HTTPClient(time.Minute)
	}
	hc := *httpClient
	return &Client{
		cfg:    cfg,
		client: common.NoRedirects(&hc),
		store:  store,
	}
}

// Configured sets up flags for the portal client and returns the instance.
// Credentials fall back to ENEDIS_USERNAME and ENEDIS_PASSWORD.
func Configured(store storage.SessionStore) *Client {
	c := NewClient(DefaultConfig(), store, nil)

	loginURL := lflag.String("enedis-login-url", c.cfg.LoginBaseURL, "Base URL of the Enedis login portal")
	apiURL := lflag.String("enedis-api-url", c.cfg.APIBaseURL, "Base URL of the Enedis customer portal")
	username := lflag.String("enedis-username", "", "Enedis account email (defaults to $ENEDIS_USERNAME)")
	password := lflag.String("enedis-password", "", "Enedis account password (defaults to $ENEDIS_PASSWORD)")
	timeout := lflag.Duration("enedis-timeout", time.Minute, "Timeout of each request to the portal")

	lflag.Do(func() {
		c.cfg.LoginBaseURL = *loginURL
		c.cfg.APIBaseURL = *apiURL
		c.client.Timeout = *timeout

		c.username = *username
		if c.username == "" {
			c.username = os.Getenv("ENEDIS_USERNAME")
		}
		c.password = *password
		if c.password == "" {
			c.password = os.Getenv("ENEDIS_PASSWORD")
		}

		if err := c.cfg.Validate(); err != nil {
			panic(fmt.Sprintf("enedis config validation failed: %v", err))
		}
	})

	return c
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) newRequest(ctx context.Context, method, baseURL, endpoint string, params, form url.Values) (*http.Request, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath(endpoint)
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// cookieValue returns the value of the named cookie set by resp, or an empty
// string.
func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// drain discards the rest of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
