// Package browser drives a Chromium instance through Rod and exposes it as
// catalog sessions. Each session is an incognito browser context, so no
// cookies or storage leak from one aggregation run to the next.
package browser

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/config"
	"github.com/use-agent/shopcrawl/models"
)

// Browser owns the browser process and hands out isolated sessions.
// It is safe for concurrent use.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher // nil when connected to a remote browser
	cfg      config.BrowserConfig

	activeSessions atomic.Int32
	openPages      atomic.Int32
}

// Launch starts a browser, or connects to cfg.RemoteURL when set.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	var (
		controlURL = cfg.RemoteURL
		l          *launcher.Launcher
	)
	if controlURL == "" {
		l = newLauncher(cfg)
		u, err := l.Launch()
		if err != nil {
			return nil, models.NewCatalogError(
				models.ErrCodeBrowserCrash,
				"failed to launch browser",
				err,
			)
		}
		controlURL = u
		slog.Info("browser launched", "controlURL", controlURL)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, models.NewCatalogError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}
	slog.Info("browser connected", "remote", cfg.RemoteURL != "")

	return &Browser{browser: b, launcher: l, cfg: cfg}, nil
}

func newLauncher(cfg config.BrowserConfig) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

// NewSession opens a fresh incognito context. It implements
// catalog.SessionFactory.
func (b *Browser) NewSession(ctx context.Context) (catalog.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, models.NewCatalogError(
			models.ErrCodeBrowserCrash,
			"failed to create incognito context",
			err,
		)
	}
	b.activeSessions.Add(1)
	return &session{owner: b, browser: incognito}, nil
}

// Stats returns a snapshot of the browser's current load.
func (b *Browser) Stats() models.BrowserStats {
	return models.BrowserStats{
		ActiveSessions: int(b.activeSessions.Load()),
		OpenPages:      int(b.openPages.Load()),
	}
}

// Close kills the launched browser process. A remote browser is left
// running. Call this on graceful shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() {
	if b.launcher == nil {
		slog.Info("leaving remote browser running")
		return
	}
	slog.Info("browser shutting down")
	if err := b.browser.Close(); err != nil {
		slog.Warn("failed to close browser", "error", err)
	}
	b.launcher.Cleanup()
	slog.Info("browser shutdown complete")
}
