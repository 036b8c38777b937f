package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
crawl:
  seeds: ["https://jobs.example.com/careers"]
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.True(t, cfg.Logging.Development)
	require.Equal(t, 3, cfg.Crawl.MaxDepth)
	require.Equal(t, 200, cfg.Crawl.MaxPages)
	require.Equal(t, "jobsift-bot/0.1", cfg.Fetch.UserAgent)
	require.False(t, cfg.Render.Enabled)
	require.False(t, cfg.Assist.Enabled)
	require.Equal(t, 0.35, cfg.Classify.AmbiguousLow)
	require.Equal(t, 0.65, cfg.Classify.AmbiguousHigh)
	require.Equal(t, "jobs.jsonl", cfg.Output.JSONLPath)
}

func TestLoadWithFileOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  port: 9090
logging:
  development: false
crawl:
  seeds: ["https://jobs.example.com/careers", "https://boards.greenhouse.io/acme"]
  allowed_hosts: ["*.greenhouse.io"]
  max_depth: 2
  max_pages: 40
  max_pages_per_host: 10
  run_timeout_seconds: 300
  snapshot_records: true
fetch:
  user_agent: jobsift-test/1.0
  timeout_seconds: 20
  concurrency: 8
  delay_ms: 250
render:
  enabled: true
  timeout_seconds: 30
  concurrency: 2
  host_qps: 1.0
classify:
  ambiguous_low: 0.4
  ambiguous_high: 0.6
assist:
  enabled: true
  endpoint: http://assist.internal:11434/api/chat
  model: llama3.1
output:
  jsonl_path: /tmp/jobs.jsonl
  postgres_dsn: postgres://jobsift@localhost/jobsift
snapshots:
  dir: /tmp/snapshots
`))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.False(t, cfg.Logging.Development)
	require.Len(t, cfg.Crawl.Seeds, 2)
	require.Equal(t, []string{"*.greenhouse.io"}, cfg.Crawl.AllowedHosts)
	require.True(t, cfg.Render.Enabled)
	require.Equal(t, "jobsift-test/1.0", cfg.Fetch.UserAgent)
	require.Equal(t, "postgres://jobsift@localhost/jobsift", cfg.Output.PostgresDSN)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing seeds", `
server:
  port: 8080
`},
		{"bad port", `
server:
  port: 0
crawl:
  seeds: ["https://example.com"]
`},
		{"render enabled without concurrency", `
crawl:
  seeds: ["https://example.com"]
render:
  enabled: true
  concurrency: 0
`},
		{"inverted ambiguous band", `
crawl:
  seeds: ["https://example.com"]
classify:
  ambiguous_low: 0.8
  ambiguous_high: 0.2
`},
		{"no outputs", `
crawl:
  seeds: ["https://example.com"]
output:
  jsonl_path: ""
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestComponentConfigConversions(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	crawlerCfg := cfg.CrawlerConfig()
	require.Equal(t, cfg.Crawl.Seeds, crawlerCfg.Seeds)
	require.Equal(t, 15*time.Second, crawlerCfg.RequestTimeout)
	require.NoError(t, crawlerCfg.Validate())

	fetchCfg := cfg.FetchConfig()
	require.Equal(t, "jobsift-bot/0.1", fetchCfg.UserAgent)
	require.Equal(t, 500*time.Millisecond, fetchCfg.DelayPerHost)

	assistedCfg := cfg.AssistedConfig()
	require.Equal(t, 0.35, assistedCfg.AmbiguousLow)
	require.Equal(t, 30*time.Second, assistedCfg.Timeout)

	clientCfg := cfg.AssistClientConfig()
	require.Equal(t, "llama3.1", clientCfg.Model)
	require.Equal(t, 8000, clientCfg.MaxFragmentBytes)
}
