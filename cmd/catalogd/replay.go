package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/use-agent/shopcrawl/catalog"
	"github.com/use-agent/shopcrawl/config"
	"github.com/use-agent/shopcrawl/htmldom"
)

// replay runs the catalog engine over saved listing pages instead of the
// live site and writes the aggregate as JSON to out.
//
// Usage: catalogd replay <dir> [--config file] [--log-level level]
//
// dir holds "<category>_<page>.html" snapshots; every category found there
// is aggregated, in name order.
func replay(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return errors.New("usage: catalogd replay <dir> [--config file] [--log-level level]")
	}
	dir := args[0]

	cfg, err := config.Load(args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	initLogger(cfg.Log, os.Stderr)

	pc := paginatorConfig(cfg.Crawl)
	// Snapshots are fully rendered: no need to wait for lazy cards.
	pc.Scroll.Delay = time.Millisecond

	site, categories, err := htmldom.LoadDir(dir, pc.Listing.URL)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("no <category>_<page>.html snapshots in %s", dir)
	}

	paginator, err := catalog.NewPaginator(pc, nil)
	if err != nil {
		return err
	}
	svc := catalog.NewService(site.Factory(), catalog.NewAggregator(paginator, 1), catalog.ServiceOptions{
		RequestTimeout: cfg.Crawl.RequestTimeout,
	})

	result, err := svc.Run(context.Background(), categories)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
