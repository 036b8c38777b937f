package crawler

import (
	"fmt"
	"time"
)

// Config holds the settings for one crawl run. It is decoupled from Viper so
// the engine can be constructed and tested without the configuration layer.
type Config struct {
	Seeds           []string
	AllowedHosts    []string
	MaxDepth        int
	MaxPages        int
	MaxPagesPerHost int
	RunTimeout      time.Duration
	RequestTimeout  time.Duration
	RenderEnabled   bool
	RenderTimeout   time.Duration
	MaxLinksPerPage int
	SnapshotRecords bool
}

// Validate rejects configurations that would make a run meaningless. This is
// the only place a crawl aborts before it starts; everything past validation
// is absorbed per page.
func (c Config) Validate() error {
	if len(c.Seeds) == 0 {
		return fmt.Errorf("crawler.seeds must include at least one URL")
	}
	for _, seed := range c.Seeds {
		if HostOf(seed) == "" {
			return fmt.Errorf("crawler.seeds entry %q is not an absolute URL", seed)
		}
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("crawler.max_pages must be > 0")
	}
	if c.MaxPagesPerHost < 0 {
		return fmt.Errorf("crawler.max_pages_per_host must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if c.RenderEnabled && c.RenderTimeout <= 0 {
		return fmt.Errorf("crawler.render_timeout must be > 0 when rendering is enabled")
	}
	if c.MaxLinksPerPage <= 0 {
		return fmt.Errorf("crawler.max_links_per_page must be > 0")
	}
	return nil
}
