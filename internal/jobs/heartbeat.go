package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ezmobilemechanic/crm/internal/cache"
)

// Component statuses reported by the heartbeat.
const (
	StatusHealthy   = "HEALTHY"
	StatusUnhealthy = "UNHEALTHY"
	StatusDegraded  = "DEGRADED"
	StatusError     = "ERROR"
)

const heartbeatCheckKey = "crm:heartbeat:check"

// HeartbeatJob checks the API, the database and the cache and appends one status line.
type HeartbeatJob struct {
	APIBaseURL string
	Client     *http.Client
	DB         Pinger
	Cache      cache.Cache
	LogPath    string
	Out        io.Writer
	Now        func() time.Time
}

func (h *HeartbeatJob) Name() string { return Heartbeat }

// Run writes `dd/mm/YYYY-HH:MM:SS CRM is <overall> - api: X, database: Y, cache: Z`.
func (h *HeartbeatJob) Run(ctx context.Context) error {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	timestamp := now.Format("02/01/2006-15:04:05")

	var api, db, kv string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { api = h.checkAPI(gctx); return gctx.Err() })
	g.Go(func() error { db = h.checkDatabase(gctx); return gctx.Err() })
	g.Go(func() error { kv = h.checkCache(gctx); return gctx.Err() })

	if err := g.Wait(); err != nil {
		msg := fmt.Sprintf("%s CRM heartbeat failed: %v", timestamp, err)
		if logErr := appendLines(h.LogPath, msg); logErr != nil {
			return fmt.Errorf("heartbeat: %w (log: %v)", err, logErr)
		}
		fmt.Fprintf(h.out(), "Heartbeat error: %s\n", msg)
		return fmt.Errorf("heartbeat: %w", err)
	}

	overall := StatusHealthy
	for _, s := range []string{api, db, kv} {
		if s != StatusHealthy {
			overall = StatusDegraded
		}
	}

	msg := fmt.Sprintf("%s CRM is %s - api: %s, database: %s, cache: %s", timestamp, overall, api, db, kv)
	if err := appendLines(h.LogPath, msg); err != nil {
		return err
	}
	fmt.Fprintf(h.out(), "Heartbeat logged: %s\n", msg)
	return nil
}

func (h *HeartbeatJob) checkAPI(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(h.APIBaseURL, "/")+"/v1/ping", nil)
	if err != nil {
		return StatusError
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return StatusError
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("HTTP_%d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "ok" {
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (h *HeartbeatJob) checkDatabase(ctx context.Context) string {
	if h.DB == nil {
		return StatusError
	}
	if err := h.DB.PingContext(ctx); err != nil {
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (h *HeartbeatJob) checkCache(ctx context.Context) string {
	if h.Cache == nil {
		return StatusError
	}
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := h.Cache.Set(ctx, heartbeatCheckKey, want, 30*time.Second); err != nil {
		return StatusError
	}
	got, err := h.Cache.Get(ctx, heartbeatCheckKey)
	if err != nil {
		return StatusError
	}
	if got != want {
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (h *HeartbeatJob) out() io.Writer {
	if h.Out != nil {
		return h.Out
	}
	return os.Stdout
}
