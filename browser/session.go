package browser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/logctx"
	"github.com/use-agent/shopcrawl/models"
)

// session is one incognito browser context.
type session struct {
	owner   *Browser
	browser *rod.Browser

	mu      sync.Mutex
	routers []*rod.HijackRouter
	pages   int
	closed  bool
}

// OpenPage creates a tab in the session's context.
//
// Setup order:
//
//  1. Create target     – new tab inside the incognito context
//  2. Viewport          – fixed device metrics for a stable card layout
//  2b. Extra headers    – Accept-Language pins the catalog locale
//  3. Stealth injection – before any navigation
//  4. Hijack mount      – before any navigation
func (s *session) OpenPage(ctx context.Context) (catalog.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, models.NewCatalogError(models.ErrCodeInternal, "session already closed", nil)
	}

	// ── 1. Create target ─────────────────────────────────────────────
	page, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewCatalogError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}
	s.pages++
	s.owner.openPages.Add(1)

	// ── 2. Viewport ──────────────────────────────────────────────────
	cfg := s.owner.cfg
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.ViewportWidth,
		Height:            cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, models.NewCatalogError(
			models.ErrCodeBrowserCrash,
			"failed to set viewport",
			err,
		)
	}

	// ── 2b. Extra headers ────────────────────────────────────────────
	if len(cfg.Headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(cfg.Headers)}).Call(page); err != nil {
			logctx.From(ctx).Warn("failed to set extra headers", "error", err)
		}
	}

	// ── 3. Stealth injection ─────────────────────────────────────────
	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			logctx.From(ctx).Warn("stealth injection failed, proceeding without stealth",
				"error", err,
			)
		}
	}

	// ── 4. Hijack mount ──────────────────────────────────────────────
	if router := setupHijack(page, cfg.BlockedResourceTypes, cfg.BlockAds); router != nil {
		s.routers = append(s.routers, router)
	}

	return &Page{page: page}, nil
}

// Close stops the hijack routers and disposes of the incognito context,
// which closes every page it holds. It is idempotent.
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	for _, router := range s.routers {
		if err := router.Stop(); err != nil {
			slog.Debug("failed to stop hijack router", "error", err)
		}
	}
	s.owner.openPages.Add(-int32(s.pages))
	s.owner.activeSessions.Add(-1)

	// The request context may already be done; disposal must still happen.
	return s.browser.Context(context.Background()).Close()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
