package enedis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
)

// ErrMissingRange is returned by Get when a ranged granularity is requested
// without a start or end date.
var ErrMissingRange = errors.New("start and end dates are required")

// Fetch requests one consumption feed. Dates are passed through verbatim and
// an empty date is left out of the request.
//
// ok is false when the portal rejected the request (any status other than
// 200) or could not be reached. The persisted session is then cleared so the
// next AcquireSession logs in again; the returned error is only set if
// clearing failed. A 200 response that is not JSON is returned as an error
// and keeps the session.
func (c *Client) Fetch(ctx context.Context, sess types.Session, kind types.ResourceKind, start, end string) (types.Consumption, bool, error) {
	startField, endField := c.cfg.dateFields()
	form := url.Values{}
	if start != "" {
		form.Set(startField, start)
	}
	if end != "" {
		form.Set(endField, end)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.cfg.APIBaseURL, c.cfg.DataPath, c.cfg.dataParams(kind), form)
	if err != nil {
		return nil, false, err
	}
	req.AddCookie(&http.Cookie{Name: loginCookie, Value: sess.IPlanetDirectoryPro})
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: sess.JSESSIONID})

	l := log.Ctx(ctx).With(slog.String("resource", string(kind)))
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		l.WarnContext(ctx, "enedis data request failed", slog.Any("error", err))
		return nil, false, c.invalidate(ctx)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		l.WarnContext(ctx, "enedis data request rejected", slog.Int("status", resp.StatusCode))
		return nil, false, c.invalidate(ctx)
	}

	var res types.Consumption
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		l.ErrorContext(ctx, "failed to decode enedis data", slog.Any("error", err))
		return nil, false, fmt.Errorf("failed to decode %s data: %w", kind, err)
	}
	l.DebugContext(ctx, "got enedis data")
	return res, true, nil
}

func (c *Client) invalidate(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Ctx(ctx).InfoContext(ctx, "cleared enedis session, next run will log in again")
	return nil
}

// GetDataPerHour returns the hourly consumption between start and end.
func (c *Client) GetDataPerHour(ctx context.Context, sess types.Session, start, end string) (types.Consumption, bool, error) {
	return c.Fetch(ctx, sess, types.ResourceHour, start, end)
}

// GetDataPerDay returns the daily consumption between start and end.
func (c *Client) GetDataPerDay(ctx context.Context, sess types.Session, start, end string) (types.Consumption, bool, error) {
	return c.Fetch(ctx, sess, types.ResourceDay, start, end)
}

// GetDataPerMonth returns the monthly consumption between start and end.
func (c *Client) GetDataPerMonth(ctx context.Context, sess types.Session, start, end string) (types.Consumption, bool, error) {
	return c.Fetch(ctx, sess, types.ResourceMonth, start, end)
}

// GetDataPerYear returns the yearly consumption. The portal decides the
// range.
func (c *Client) GetDataPerYear(ctx context.Context, sess types.Session) (types.Consumption, bool, error) {
	return c.Fetch(ctx, sess, types.ResourceYear, "", "")
}

// Get dispatches to the getter for kind. Dates are ignored for the yearly
// feed and required for the others.
func (c *Client) Get(ctx context.Context, sess types.Session, kind types.ResourceKind, start, end string) (types.Consumption, bool, error) {
	switch kind {
	case types.ResourceYear:
		return c.GetDataPerYear(ctx, sess)
	case types.ResourceHour, types.ResourceDay, types.ResourceMonth:
		if start == "" || end == "" {
			return nil, false, fmt.Errorf("%s: %w", kind.Granularity(), ErrMissingRange)
		}
		return c.Fetch(ctx, sess, kind, start, end)
	default:
		return nil, false, fmt.Errorf("unknown resource kind: %s", kind)
	}
}
