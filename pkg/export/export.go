package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/linky/pkg/log"
	"github.com/raterudder/linky/pkg/types"
)

// portalDateLayout is the dd/mm/yyyy format the portal's date pickers use.
const portalDateLayout = "02/01/2006"

// ErrSessionInvalidated is returned when the portal rejected a request. The
// stored session has already been cleared so the next run logs in again.
var ErrSessionInvalidated = errors.New("session rejected by the portal, run again to log in")

// Fetcher is the part of the portal client the exporter needs.
type Fetcher interface {
	Login(ctx context.Context) (types.Session, error)
	Get(ctx context.Context, sess types.Session, kind types.ResourceKind, start, end string) (types.Consumption, bool, error)
}

// Exporter fetches consumption documents and writes them out as JSON.
type Exporter struct {
	fetcher Fetcher

	kinds     []types.ResourceKind
	start     string
	end       string
	outputDir string
	out       io.Writer
}

// Configured sets up flags for the exporter and returns the instance.
func Configured(f Fetcher) *Exporter {
	now := time.Now()
	e := &Exporter{
		fetcher: f,
		out:     os.Stdout,
	}

	granularities := lflag.String("granularities", "day,month,year", "Comma-delimited granularities to export (hour, day, month, year)")
	start := lflag.String("start", now.AddDate(0, -1, 0).Format(portalDateLayout), "Start date sent to the portal as-is (dd/mm/yyyy)")
	end := lflag.String("end", now.Format(portalDateLayout), "End date sent to the portal as-is (dd/mm/yyyy)")
	outputDir := lflag.String("output-dir", "", "Directory to write <granularity>.json files into. Empty writes a single document to stdout")

	lflag.Do(func() {
		kinds, err := parseGranularities(*granularities)
		if err != nil {
			panic(fmt.Sprintf("invalid granularities: %v", err))
		}
		e.kinds = kinds
		e.start = *start
		e.end = *end
		e.outputDir = *outputDir
	})

	return e
}

func parseGranularities(s string) ([]types.ResourceKind, error) {
	var kinds []types.ResourceKind
	seen := make(map[types.ResourceKind]bool)
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		kind, err := types.ParseGranularity(name)
		if err != nil {
			return nil, err
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, errors.New("at least one granularity is required")
	}
	return kinds, nil
}

// Validate ensures the exporter can run.
func (e *Exporter) Validate() error {
	if len(e.kinds) == 0 {
		return errors.New("at least one granularity is required")
	}
	for _, kind := range e.kinds {
		if kind.NeedsRange() && (e.start == "" || e.end == "") {
			return fmt.Errorf("start and end are required for %s", kind.Granularity())
		}
	}
	return nil
}

// Run acquires a session and exports every configured granularity. It stops
// at the first rejected request and returns ErrSessionInvalidated.
func (e *Exporter) Run(ctx context.Context) error {
	if err := e.Validate(); err != nil {
		return err
	}

	sess, err := e.fetcher.Login(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire session: %w", err)
	}

	docs := make(map[string]types.Consumption, len(e.kinds))
	for _, kind := range e.kinds {
		l := log.Ctx(ctx).With(slog.String("granularity", kind.Granularity()))
		res, ok, err := e.fetcher.Get(ctx, sess, kind, e.start, e.end)
		if err != nil {
			return fmt.Errorf("failed to fetch %s data: %w", kind.Granularity(), err)
		}
		if !ok {
			l.WarnContext(ctx, "portal rejected the request")
			return ErrSessionInvalidated
		}
		l.InfoContext(ctx, "fetched consumption data")

		if e.outputDir == "" {
			docs[kind.Granularity()] = res
			continue
		}
		path, err := e.writeFile(kind, res)
		if err != nil {
			return err
		}
		l.InfoContext(ctx, "wrote consumption file", slog.String("path", path))
	}

	if e.outputDir != "" {
		return nil
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (e *Exporter) writeFile(kind types.ResourceKind, res types.Consumption) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s data: %w", kind.Granularity(), err)
	}
	path := filepath.Join(e.outputDir, kind.Granularity()+".json")
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
