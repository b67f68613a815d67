package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/raterudder/linky/pkg/enedis"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
)

// handleConsumption serves GET /api/consumption/{granularity}?start=&end=.
// Dates are passed to the portal as-is.
func (s *Server) handleConsumption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := types.ParseGranularity(r.PathValue("granularity"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if kind.NeedsRange() && (start == "" || end == "") {
		writeJSONError(w, "start and end are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.fetcher.Login(ctx)
	if err != nil {
		if errors.Is(err, enedis.ErrAuthentication) {
			writeJSONError(w, "portal login failed", http.StatusUnauthorized)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to acquire session", slog.Any("error", err))
		writeJSONError(w, "failed to acquire session", http.StatusBadGateway)
		return
	}

	res, ok, err := s.fetcher.Get(ctx, sess, kind, start, end)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch consumption", slog.Any("error", err))
		writeJSONError(w, "failed to fetch consumption", http.StatusBadGateway)
		return
	}
	if !ok {
		writeJSONError(w, "portal rejected the session, retry to log in again", http.StatusBadGateway)
		return
	}

	writeJSON(w, res)
}
