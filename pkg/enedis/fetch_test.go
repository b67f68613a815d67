package enedis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/raterudder/linky/pkg/storage"
	"github.com/raterudder/linky/pkg/storage/storagemock"
	"github.com/raterudder/linky/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	ctx := context.Background()
	sess := types.Session{IPlanetDirectoryPro: "A", JSESSIONID: "B"}

	t.Run("Resource Kinds", func(t *testing.T) {
		p, ts := newMockPortal(t)
		c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

		for _, kind := range []types.ResourceKind{types.ResourceHour, types.ResourceDay, types.ResourceMonth, types.ResourceYear} {
			_, ok, err := c.Fetch(ctx, sess, kind, "01/01/2020", "31/01/2020")
			require.NoError(t, err)
			require.True(t, ok)

			req := p.lastDataRequest()
			assert.Equal(t, string(kind), req.query.Get("p_p_resource_id"))
			assert.Equal(t, "lincspartdisplaycdc_WAR_lincspartcdcportlet", req.query.Get("p_p_id"))
			assert.Equal(t, "2", req.query.Get("p_p_lifecycle"))
			assert.Equal(t, "normal", req.query.Get("p_p_state"))
			assert.Equal(t, "view", req.query.Get("p_p_mode"))
			assert.Equal(t, "cacheLevelPage", req.query.Get("p_p_cacheability"))
			assert.Equal(t, "column-1", req.query.Get("p_p_col_id"))
			assert.Equal(t, "1", req.query.Get("p_p_col_pos"))
			assert.Equal(t, "3", req.query.Get("p_p_col_count"))
			assert.Equal(t, map[string]string{"iPlanetDirectoryPro": "A", "JSESSIONID": "B"}, req.cookies)
		}
	})

	t.Run("Decodes Body", func(t *testing.T) {
		_, ts := newMockPortal(t)
		c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

		res, ok, err := c.Fetch(ctx, sess, types.ResourceDay, "a", "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"total": float64(42)}, res)
	})

	t.Run("Per Day Sends Dates", func(t *testing.T) {
		p, ts := newMockPortal(t)
		c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

		_, ok, err := c.GetDataPerDay(ctx, sess, "2020-01-01", "2020-01-31")
		require.NoError(t, err)
		require.True(t, ok)

		req := p.lastDataRequest()
		assert.Equal(t, "urlCdcJour", req.query.Get("p_p_resource_id"))
		assert.Equal(t, "2020-01-01", req.form.Get(testPortletPrefix+"dateDebut"))
		assert.Equal(t, "2020-01-31", req.form.Get(testPortletPrefix+"dateFin"))
	})

	t.Run("Per Hour And Month", func(t *testing.T) {
		p, ts := newMockPortal(t)
		c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

		_, ok, err := c.GetDataPerHour(ctx, sess, "01/01/2020", "02/01/2020")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "urlCdcHeure", p.lastDataRequest().query.Get("p_p_resource_id"))
		assert.Equal(t, "01/01/2020", p.lastDataRequest().form.Get(testPortletPrefix+"dateDebut"))

		_, ok, err = c.GetDataPerMonth(ctx, sess, "01/01/2019", "31/12/2019")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "urlCdcMois", p.lastDataRequest().query.Get("p_p_resource_id"))
		assert.Equal(t, "31/12/2019", p.lastDataRequest().form.Get(testPortletPrefix+"dateFin"))
	})

	t.Run("Per Year Sends No Dates", func(t *testing.T) {
		p, ts := newMockPortal(t)
		c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

		_, ok, err := c.GetDataPerYear(ctx, sess)
		require.NoError(t, err)
		require.True(t, ok)

		req := p.lastDataRequest()
		assert.Equal(t, "urlCdcAn", req.query.Get("p_p_resource_id"))
		assert.Empty(t, req.form.Get(testPortletPrefix+"dateDebut"))
		assert.Empty(t, req.form.Get(testPortletPrefix+"dateFin"))
		assert.Equal(t, map[string]string{"iPlanetDirectoryPro": "A", "JSESSIONID": "B"}, req.cookies)
	})

	t.Run("Rejected Clears Session", func(t *testing.T) {
		for _, status := range []int{http.StatusFound, http.StatusUnauthorized, http.StatusInternalServerError} {
			p, ts := newMockPortal(t)
			p.dataStatus = status

			dir := t.TempDir()
			store := storage.NewFileStore(filepath.Join(dir, "cookie1"), filepath.Join(dir, "cookie2"))
			require.NoError(t, store.Save(ctx, sess))

			c := NewClient(testConfig(ts), store, ts.Client())
			res, ok, err := c.GetDataPerDay(ctx, sess, "2020-01-01", "2020-01-31")
			require.NoError(t, err, "status %d", status)
			assert.False(t, ok, "status %d", status)
			assert.Nil(t, res)

			_, stored, err := store.Load(ctx)
			require.NoError(t, err)
			assert.False(t, stored, "session should be cleared after status %d", status)

			// already absent, still absent and no error
			_, ok, err = c.GetDataPerYear(ctx, sess)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})

	t.Run("Unreachable Clears Session", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		cfg := testConfig(ts)
		client := ts.Client()
		ts.Close()

		store := storage.NewMemoryStore()
		require.NoError(t, store.Save(ctx, sess))

		c := NewClient(cfg, store, client)
		_, ok, err := c.GetDataPerYear(ctx, sess)
		require.NoError(t, err)
		assert.False(t, ok)

		_, stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.False(t, stored)
	})

	t.Run("Canceled Keeps Session", func(t *testing.T) {
		_, ts := newMockPortal(t)
		store := &storagemock.MockStore{}
		c := NewClient(testConfig(ts), store, ts.Client())

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, ok, err := c.GetDataPerYear(canceled, sess)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ok)
		store.AssertNotCalled(t, "Clear", mock.Anything)
	})

	t.Run("Clear Error", func(t *testing.T) {
		p, ts := newMockPortal(t)
		p.dataStatus = http.StatusInternalServerError
		store := &storagemock.MockStore{}
		store.On("Clear", mock.Anything).Return(errors.New("permission denied"))

		c := NewClient(testConfig(ts), store, ts.Client())
		_, ok, err := c.GetDataPerYear(ctx, sess)
		assert.False(t, ok)
		assert.ErrorContains(t, err, "permission denied")
	})

	t.Run("Invalid JSON Keeps Session", func(t *testing.T) {
		p, ts := newMockPortal(t)
		p.dataBody = "<html>maintenance</html>"
		store := &storagemock.MockStore{}

		c := NewClient(testConfig(ts), store, ts.Client())
		_, ok, err := c.GetDataPerYear(ctx, sess)
		assert.Error(t, err)
		assert.False(t, ok)
		store.AssertNotCalled(t, "Clear", mock.Anything)
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	sess := types.Session{IPlanetDirectoryPro: "A", JSESSIONID: "B"}
	p, ts := newMockPortal(t)
	c := NewClient(testConfig(ts), storage.NewMemoryStore(), ts.Client())

	t.Run("Year Ignores Dates", func(t *testing.T) {
		_, ok, err := c.Get(ctx, sess, types.ResourceYear, "x", "y")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Empty(t, p.lastDataRequest().form)
	})

	t.Run("Ranged Requires Dates", func(t *testing.T) {
		for _, kind := range []types.ResourceKind{types.ResourceHour, types.ResourceDay, types.ResourceMonth} {
			_, _, err := c.Get(ctx, sess, kind, "2020-01-01", "")
			assert.ErrorIs(t, err, ErrMissingRange)
		}
	})

	t.Run("Ranged", func(t *testing.T) {
		_, ok, err := c.Get(ctx, sess, types.ResourceMonth, "2020-01-01", "2020-12-31")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "urlCdcMois", p.lastDataRequest().query.Get("p_p_resource_id"))
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		_, _, err := c.Get(ctx, sess, types.ResourceKind("urlCdcSemaine"), "a", "b")
		assert.ErrorContains(t, err, "unknown resource kind")
	})
}
