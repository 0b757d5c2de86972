/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-15 10:11:29
 * @FilePath: \pssuai-admin\backend\internal\service\proxy\service.go
 * @LastEditTime: 2025-10-24 09:58:13
 */
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pssuai-admin/backend/internal/domain/mirror"
	"pssuai-admin/backend/internal/infra/metrics"
	"pssuai-admin/backend/internal/infra/remote"

	"go.uber.org/zap"
)

const defaultFallbackLimit = 500

// Upstream is the remote facility-access API.
type Upstream interface {
	Fetch(ctx context.Context, path string, timeout time.Duration) remote.FetchResult
	Delete(ctx context.Context, path string, timeout time.Duration) (int, string, error)
	Get(ctx context.Context, path string, timeout time.Duration) (*remote.RawResponse, error)
}

// MirrorStore is the local copy of the event feeds.
type MirrorStore interface {
	UpsertAccessEvents(ctx context.Context, rows []map[string]any) (int, error)
	UpsertQrEvents(ctx context.Context, rows []map[string]any) (int, error)
	RecentRows(ctx context.Context, table string, limit int) ([]map[string]any, error)
}

// ResidentStore deletes local resident copies.
type ResidentStore interface {
	DeleteByID(ctx context.Context, id int64) (int64, error)
}

// Config carries the proxy tunables.
type Config struct {
	SyncToDB      bool
	FallbackLimit int
	ReadTimeout   time.Duration
	LookupTimeout time.Duration
	DeleteTimeout time.Duration
}

// Feed describes one proxied event list.
type Feed struct {
	// Resource names the feed in errors, logs and metrics.
	Resource string
	// Path is the upstream path.
	Path string
	// Table is the mirror table used for sync and fallback.
	Table string
}

var (
	// AccessEvents is the resident entry/exit feed.
	AccessEvents = Feed{Resource: "access-events", Path: "/access-events", Table: mirror.TableAccessEvents}
	// QrEvents is the visitor QR scan feed.
	QrEvents = Feed{Resource: "qr-events", Path: "/qr-events", Table: mirror.TableQrEvents}
)

// ListOutcome is what a list endpoint answers.
type ListOutcome struct {
	Status int
	Rows   []remote.Row
	Error  string
}

// OK reports a live upstream answer.
func (o ListOutcome) OK() bool {
	return o.Status == http.StatusOK
}

// Service orchestrates upstream reads, mirror sync and fallback, and resident deletion.
type Service struct {
	cfg       Config
	upstream  Upstream
	mirror    MirrorStore
	residents ResidentStore
	logger    *zap.SugaredLogger
}

// NewService wires the proxy.
func NewService(cfg Config, upstream Upstream, mirrorStore MirrorStore, residents ResidentStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = defaultFallbackLimit
	}
	return &Service{
		cfg:       cfg,
		upstream:  upstream,
		mirror:    mirrorStore,
		residents: residents,
		logger:    logger.With("component", "proxy"),
	}
}

// ListAccessEvents proxies /access-events.
func (s *Service) ListAccessEvents(ctx context.Context) ListOutcome {
	return s.ListFeed(ctx, AccessEvents)
}

// ListQrEvents proxies /qr-events.
func (s *Service) ListQrEvents(ctx context.Context) ListOutcome {
	return s.ListFeed(ctx, QrEvents)
}

// ListFeed fetches feed upstream, syncing on success and falling back to the mirror on failure.
func (s *Service) ListFeed(ctx context.Context, feed Feed) (outcome ListOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Errorw("list feed panicked", "resource", feed.Resource, "panic", recovered)
			outcome = fetchFailed(feed, fmt.Errorf("%v", recovered))
		}
	}()

	start := time.Now()
	result := s.upstream.Fetch(ctx, feed.Path, s.cfg.ReadTimeout)
	metrics.ObserveUpstream(feed.Resource, result.Kind.String(), time.Since(start))

	if !result.OK() {
		s.logger.Warnw("upstream read failed, serving mirror",
			"resource", feed.Resource,
			"kind", result.Kind.String(),
			"status", result.Status,
			"body", result.Body,
		)
		return ListOutcome{
			Status: http.StatusBadGateway,
			Rows:   s.fallbackRows(ctx, feed),
			Error:  fmt.Sprintf("%s remote failed %s", feed.Resource, result.Summary(remote.MaxClientDiagnostic)),
		}
	}

	if s.cfg.SyncToDB {
		written, err := s.sync(ctx, feed, result.Rows)
		if err != nil {
			s.logger.Errorw("mirror sync failed", "resource", feed.Resource, "rows", len(result.Rows), "error", err)
			return fetchFailed(feed, err)
		}
		metrics.AddSyncedRows(feed.Table, written)
		if skipped := len(result.Rows) - written; skipped > 0 {
			s.logger.Debugw("rows not synced", "resource", feed.Resource, "skipped", skipped)
		}
	}

	return ListOutcome{Status: http.StatusOK, Rows: result.Rows}
}

// sync writes the object rows of a live answer; other list elements are skipped.
func (s *Service) sync(ctx context.Context, feed Feed, rows []remote.Row) (int, error) {
	if s.mirror == nil {
		return 0, errors.New("mirror store not configured")
	}
	records := remote.Records(rows)
	switch feed.Table {
	case mirror.TableAccessEvents:
		return s.mirror.UpsertAccessEvents(ctx, records)
	case mirror.TableQrEvents:
		return s.mirror.UpsertQrEvents(ctx, records)
	default:
		return 0, fmt.Errorf("no sync for table %q", feed.Table)
	}
}

// fallbackRows never fails: a broken mirror must not hide the upstream error.
func (s *Service) fallbackRows(ctx context.Context, feed Feed) []remote.Row {
	if s.mirror == nil {
		metrics.RecordFallback(feed.Table, "error")
		return []remote.Row{}
	}
	rows, err := s.mirror.RecentRows(ctx, feed.Table, s.cfg.FallbackLimit)
	if err != nil {
		s.logger.Warnw("mirror fallback failed", "table", feed.Table, "error", err)
		metrics.RecordFallback(feed.Table, "error")
		return []remote.Row{}
	}
	metrics.RecordFallback(feed.Table, "ok")
	out := make([]remote.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out
}

func fetchFailed(feed Feed, err error) ListOutcome {
	return ListOutcome{
		Status: http.StatusInternalServerError,
		Rows:   []remote.Row{},
		Error:  fmt.Sprintf("%s fetch failed: %v", feed.Resource, err),
	}
}
