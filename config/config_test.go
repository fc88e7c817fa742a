package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/storerank/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storerank.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_MergesOntoDefaults(t *testing.T) {
	t.Setenv("TEST_MONGO_URI", "mongodb://db:27017")
	path := writeConfig(t, `
mongo:
  uri: ${TEST_MONGO_URI}
  database: ${TEST_MONGO_DB:-shop}
  collections:
    products: catalog
graph:
  decay: 0.9
  rebuild_interval: 6h
similar:
  brand: 4
personal:
  brand: 6
  window_days: 30
blend:
  personal: 2
feed:
  rule: product.price < 2000.0
  blacklist: [p9]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mongo.URI != "mongodb://db:27017" || cfg.Mongo.Database != "shop" {
		t.Errorf("mongo = %+v", cfg.Mongo)
	}
	if cfg.Mongo.Collections.Products != "catalog" {
		t.Errorf("collections = %+v", cfg.Mongo.Collections)
	}
	if cfg.Graph.Decay != 0.9 || cfg.Graph.MinCount != 2 || cfg.Graph.WindowDays != 120 {
		t.Errorf("graph = %+v", cfg.Graph)
	}
	if cfg.Graph.RebuildInterval != 6*time.Hour {
		t.Errorf("rebuild_interval = %v", cfg.Graph.RebuildInterval)
	}
	if cfg.Similar.Brand != 4 || cfg.Similar.Subcategory != 5 {
		t.Errorf("similar weights = %+v", cfg.Similar)
	}
	if cfg.Personal.Brand != 6 || cfg.Personal.Tag != 1 || cfg.Personal.WindowDays != 30 {
		t.Errorf("personal = %+v", cfg.Personal)
	}
	if cfg.Blend["personal"] != 2 || cfg.Blend["trending"] != 1 {
		t.Errorf("blend = %v", cfg.Blend)
	}

	opts := cfg.ServiceOptions()
	if opts.Blend[core.SourcePersonal] != 2 {
		t.Errorf("service blend = %v", opts.Blend)
	}
	if opts.PersonalWindow != 30*24*time.Hour || opts.Feed.Rule == "" || len(opts.Feed.Blacklist) != 1 {
		t.Errorf("service options = %+v", opts)
	}
	if g := cfg.GraphOptions(); g.Window != 120*24*time.Hour || g.Decay != 0.9 {
		t.Errorf("graph options = %+v", g)
	}
	if m := cfg.MongoOptions(); m.Collections.Products != "catalog" || m.ScanBatchSize != 500 {
		t.Errorf("mongo options = %+v", m)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORERANK_BACKEND", "memory")
	t.Setenv("STORERANK_HTTP_ADDR", ":9090")
	t.Setenv("STORERANK_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backend != "memory" || cfg.HTTP.Addr != ":9090" || cfg.Redis.Addr != "redis:6379" {
		t.Errorf("overrides not applied: backend=%q addr=%q redis=%q", cfg.Backend, cfg.HTTP.Addr, cfg.Redis.Addr)
	}
	if cfg.Feed.Limit != 24 || cfg.Interaction.Purchase != 5 {
		t.Errorf("defaults missing: feed=%+v interaction=%+v", cfg.Feed, cfg.Interaction)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "graph: [")); err == nil {
		t.Errorf("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid memory", mutate: func(c *Config) { c.Backend = "memory" }},
		{name: "mongo without uri", mutate: func(c *Config) {}, wantErr: "mongo.uri"},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "sqlite" }, wantErr: "backend"},
		{name: "decay above one", mutate: func(c *Config) { c.Backend = "memory"; c.Graph.Decay = 1.2 }, wantErr: "graph.decay"},
		{name: "negative decay", mutate: func(c *Config) { c.Backend = "memory"; c.Graph.Decay = -0.5 }, wantErr: "graph.decay"},
		{name: "min count", mutate: func(c *Config) { c.Backend = "memory"; c.Graph.MinCount = -1 }, wantErr: "graph.min_count"},
		{name: "feed limit", mutate: func(c *Config) { c.Backend = "memory"; c.Feed.Limit = 1000 }, wantErr: "feed.limit"},
		{name: "negative blend weight", mutate: func(c *Config) { c.Backend = "memory"; c.Blend["fbt"] = -1 }, wantErr: "blend.fbt"},
		{name: "log level", mutate: func(c *Config) { c.Backend = "memory"; c.Logging.Level = "verbose" }, wantErr: "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_SET", "value")
	tests := []struct {
		in   string
		want string
	}{
		{in: "a: ${TEST_SET}", want: "a: value"},
		{in: "a: ${TEST_UNSET_VAR:-fallback}", want: "a: fallback"},
		{in: "a: ${TEST_SET:-fallback}", want: "a: value"},
		{in: "a: ${TEST_UNSET_VAR}", want: "a: "},
		{in: "a: plain", want: "a: plain"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	logger, err := LoggingConfig{Level: "debug", Development: true}.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Errorf("debug level not enabled")
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../storerank.example.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.Graph.WindowDays != def.Graph.WindowDays || cfg.Graph.Decay != def.Graph.Decay || cfg.Graph.MinCount != def.Graph.MinCount {
		t.Errorf("graph = %+v, want defaults %+v", cfg.Graph, def.Graph)
	}
	if cfg.Similar != def.Similar {
		t.Errorf("similar = %+v, want %+v", cfg.Similar, def.Similar)
	}
	if cfg.Interaction != def.Interaction {
		t.Errorf("interaction = %+v, want %+v", cfg.Interaction, def.Interaction)
	}
	if cfg.Feed.SourceTimeout != 2*time.Second {
		t.Errorf("feed.source_timeout = %v", cfg.Feed.SourceTimeout)
	}
	if len(cfg.Attachment.Subcategories) != 8 {
		t.Errorf("attachment.subcategories = %v", cfg.Attachment.Subcategories)
	}
}

func TestConfig_ScheduledRebuild(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		schedule bool
		want     bool
	}{
		{name: "mongo scheduled", backend: "mongo", schedule: true, want: true},
		{name: "mongo external cron", backend: "mongo", schedule: false, want: false},
		{name: "memory has no order log", backend: "memory", schedule: true, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Backend = tt.backend
			cfg.Graph.Schedule = tt.schedule
			if got := cfg.ScheduledRebuild(); got != tt.want {
				t.Errorf("ScheduledRebuild() = %v, want %v", got, tt.want)
			}
		})
	}
}
