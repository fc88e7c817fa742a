// Package config 加载 storerank 的 YAML 配置。
// 加载顺序：.env（可选）→ YAML（${VAR} 与 ${VAR:-default} 从环境变量展开）→ STORERANK_* 覆盖 → 默认值 → 校验。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/storerank/core"
	"github.com/rushteam/storerank/graph"
	"github.com/rushteam/storerank/interaction"
	"github.com/rushteam/storerank/recall"
	"github.com/rushteam/storerank/service"
	"github.com/rushteam/storerank/store"
	"github.com/rushteam/storerank/worker"
)

// Config 是进程的全部配置。
type Config struct {
	// Backend 是存储后端：mongo（默认）或 memory（仅开发）
	Backend string `yaml:"backend"`

	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	Logging LoggingConfig `yaml:"logging"`
	Worker  WorkerConfig  `yaml:"worker"`
	Graph   GraphConfig   `yaml:"graph"`

	Interaction interaction.Weights   `yaml:"interaction"`
	Similar     recall.SimilarWeights `yaml:"similar"`
	Personal    PersonalConfig        `yaml:"personal"`
	Attachment  AttachmentConfig      `yaml:"attachment"`
	Blend       map[string]float64    `yaml:"blend"`
	Feed        FeedConfig            `yaml:"feed"`
}

// HTTPConfig 是 HTTP 服务参数。
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MongoConfig 是 MongoDB 连接参数。
type MongoConfig struct {
	URI           string                 `yaml:"uri"`
	Database      string                 `yaml:"database"`
	Collections   store.MongoCollections `yaml:"collections"`
	OrderStatuses []string               `yaml:"order_statuses"`
	EnsureIndexes bool                   `yaml:"ensure_indexes"`
}

// RedisConfig 是热门榜 Redis 参数。Addr 为空时不使用 Redis，热门退回目录销量。
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	TrendingKey string `yaml:"trending_key"`
}

// WorkerConfig 是后台任务队列参数。
type WorkerConfig struct {
	QueueSize   int           `yaml:"queue_size"`
	Workers     int           `yaml:"workers"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
}

// GraphConfig 是共购图重建参数。
type GraphConfig struct {
	WindowDays      int           `yaml:"window_days"`
	MinCount        int           `yaml:"min_count"`
	Decay           float64       `yaml:"decay"`
	RebuildInterval time.Duration `yaml:"rebuild_interval"`
	RebuildOnStart  bool          `yaml:"rebuild_on_start"`
	// Schedule 为 false 时进程内不做周期重建，交给外部 cron 调用 `storerank rebuild`
	Schedule   bool `yaml:"schedule"`
	WriteBatch int  `yaml:"write_batch"`
	OrderPage  int  `yaml:"order_page_size"`
}

// PersonalConfig 是个性化打分参数。
type PersonalConfig struct {
	recall.PersonalWeights `yaml:",inline"`

	WindowDays int `yaml:"window_days"`
	MaxEvents  int `yaml:"max_events"`
}

// AttachmentConfig 是配件打分参数。
type AttachmentConfig struct {
	recall.AttachmentWeights `yaml:",inline"`

	Subcategories []string `yaml:"subcategories"`
}

// FeedConfig 是首页混排参数。
type FeedConfig struct {
	TrendingLimit  int           `yaml:"trending_limit"`
	PersonalLimit  int           `yaml:"personal_limit"`
	Limit          int           `yaml:"limit"`
	MaxPerCategory int           `yaml:"max_per_category"`
	Rule           string        `yaml:"rule"`
	Blacklist      []string      `yaml:"blacklist"`
	HidePurchased  bool          `yaml:"hide_purchased"`
	SourceTimeout  time.Duration `yaml:"source_timeout"`
	TrendingBump   float64       `yaml:"trending_bump"`
}

// LoggingConfig 是日志参数。
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default 返回全部取默认值的配置。
func Default() Config {
	svc := service.DefaultOptions()
	g := graph.DefaultOptions()
	blend := make(map[string]float64, len(svc.Blend))
	for k, v := range svc.Blend {
		blend[string(k)] = v
	}
	return Config{
		Backend: "mongo",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			RequestTimeout:  5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Mongo: MongoConfig{
			Database: "storefront",
		},
		Redis: RedisConfig{
			TrendingKey: "trending:products",
		},
		Logging: LoggingConfig{Level: "info"},
		Worker: WorkerConfig{
			QueueSize:   1024,
			Workers:     4,
			TaskTimeout: 10 * time.Second,
		},
		Graph: GraphConfig{
			WindowDays:      int(g.Window / (24 * time.Hour)),
			MinCount:        g.MinCount,
			Decay:           g.Decay,
			RebuildInterval: 24 * time.Hour,
			Schedule:        true,
			WriteBatch:      g.WriteBatch,
			OrderPage:       500,
		},
		Interaction: svc.InteractionWeights,
		Similar:     svc.Similar,
		Personal: PersonalConfig{
			PersonalWeights: svc.Personal,
			WindowDays:      90,
			MaxEvents:       svc.PersonalMaxEvents,
		},
		Attachment: AttachmentConfig{
			AttachmentWeights: svc.Attachment,
			Subcategories:     append([]string(nil), svc.AccessorySubcategories...),
		},
		Blend: blend,
		Feed: FeedConfig{
			TrendingLimit: svc.Feed.TrendingLimit,
			PersonalLimit: svc.Feed.PersonalLimit,
			Limit:         svc.Feed.Limit,
			TrendingBump:  svc.TrendingBump,
		},
	}
}

// Load 读取配置文件。path 为空时只使用默认值与环境变量。
// 工作目录下的 .env 存在时先加载，已存在的环境变量不会被覆盖。
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := Parse(expandEnvVars(data), &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse 把 YAML 合并到 cfg 上，文件中未出现的字段保持原值。
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"STORERANK_BACKEND", &c.Backend},
		{"STORERANK_HTTP_ADDR", &c.HTTP.Addr},
		{"STORERANK_MONGO_URI", &c.Mongo.URI},
		{"STORERANK_MONGO_DATABASE", &c.Mongo.Database},
		{"STORERANK_REDIS_ADDR", &c.Redis.Addr},
		{"STORERANK_REDIS_PASSWORD", &c.Redis.Password},
		{"STORERANK_LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// ApplyDefaults 把显式写成零值的字段恢复为默认值。
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = d.HTTP.Addr
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = d.HTTP.ReadTimeout
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = d.HTTP.WriteTimeout
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = d.HTTP.RequestTimeout
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = d.HTTP.ShutdownTimeout
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = d.Mongo.Database
	}
	if c.Redis.TrendingKey == "" {
		c.Redis.TrendingKey = d.Redis.TrendingKey
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Worker.QueueSize <= 0 {
		c.Worker.QueueSize = d.Worker.QueueSize
	}
	if c.Worker.Workers <= 0 {
		c.Worker.Workers = d.Worker.Workers
	}
	if c.Worker.TaskTimeout <= 0 {
		c.Worker.TaskTimeout = d.Worker.TaskTimeout
	}
	if c.Graph.WindowDays == 0 {
		c.Graph.WindowDays = d.Graph.WindowDays
	}
	if c.Graph.MinCount == 0 {
		c.Graph.MinCount = d.Graph.MinCount
	}
	if c.Graph.Decay == 0 {
		c.Graph.Decay = d.Graph.Decay
	}
	if c.Graph.RebuildInterval <= 0 {
		c.Graph.RebuildInterval = d.Graph.RebuildInterval
	}
	if c.Graph.WriteBatch <= 0 {
		c.Graph.WriteBatch = d.Graph.WriteBatch
	}
	if c.Graph.OrderPage <= 0 {
		c.Graph.OrderPage = d.Graph.OrderPage
	}
	if c.Personal.WindowDays == 0 {
		c.Personal.WindowDays = d.Personal.WindowDays
	}
	if c.Personal.MaxEvents == 0 {
		c.Personal.MaxEvents = d.Personal.MaxEvents
	}
	if len(c.Attachment.Subcategories) == 0 {
		c.Attachment.Subcategories = d.Attachment.Subcategories
	}
	if c.Blend == nil {
		c.Blend = d.Blend
	}
	if c.Feed.TrendingLimit == 0 {
		c.Feed.TrendingLimit = d.Feed.TrendingLimit
	}
	if c.Feed.PersonalLimit == 0 {
		c.Feed.PersonalLimit = d.Feed.PersonalLimit
	}
	if c.Feed.Limit == 0 {
		c.Feed.Limit = d.Feed.Limit
	}
	if c.Feed.TrendingBump == 0 {
		c.Feed.TrendingBump = d.Feed.TrendingBump
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	switch c.Backend {
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo backend")
		}
	case "memory":
	default:
		return fmt.Errorf("backend must be \"mongo\" or \"memory\", got %q", c.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Graph.Decay <= 0 || c.Graph.Decay > 1 {
		return fmt.Errorf("graph.decay must be in (0, 1], got %v", c.Graph.Decay)
	}
	if c.Graph.MinCount < 1 {
		return fmt.Errorf("graph.min_count must be >= 1, got %d", c.Graph.MinCount)
	}
	if c.Graph.WindowDays < 1 {
		return fmt.Errorf("graph.window_days must be >= 1, got %d", c.Graph.WindowDays)
	}
	if c.Personal.WindowDays < 1 || c.Personal.MaxEvents < 1 {
		return fmt.Errorf("personal.window_days and personal.max_events must be positive")
	}
	limits := map[string]int{
		"feed.trending_limit":   c.Feed.TrendingLimit,
		"feed.personal_limit":   c.Feed.PersonalLimit,
		"feed.limit":            c.Feed.Limit,
		"feed.max_per_category": c.Feed.MaxPerCategory,
	}
	for name, v := range limits {
		if v < 0 || v > service.MaxLimit {
			return fmt.Errorf("%s must be between 0 and %d, got %d", name, service.MaxLimit, v)
		}
	}
	for source, w := range c.Blend {
		if w < 0 {
			return fmt.Errorf("blend.%s must not be negative, got %v", source, w)
		}
	}
	return nil
}

// ServiceOptions 转换为推荐服务参数。
func (c *Config) ServiceOptions() service.Options {
	blend := make(map[core.SourceType]float64, len(c.Blend))
	for k, v := range c.Blend {
		blend[core.SourceType(k)] = v
	}
	return service.Options{
		Similar:                c.Similar,
		Personal:               c.Personal.PersonalWeights,
		Attachment:             c.Attachment.AttachmentWeights,
		AccessorySubcategories: c.Attachment.Subcategories,
		PersonalWindow:         days(c.Personal.WindowDays),
		PersonalMaxEvents:      c.Personal.MaxEvents,
		Blend:                  blend,
		Feed: service.FeedOptions{
			TrendingLimit:  c.Feed.TrendingLimit,
			PersonalLimit:  c.Feed.PersonalLimit,
			Limit:          c.Feed.Limit,
			MaxPerCategory: c.Feed.MaxPerCategory,
			Rule:           c.Feed.Rule,
			Blacklist:      c.Feed.Blacklist,
			HidePurchased:  c.Feed.HidePurchased,
			SourceTimeout:  c.Feed.SourceTimeout,
		},
		InteractionWeights: c.Interaction,
		TrendingBump:       c.Feed.TrendingBump,
	}
}

// ScheduledRebuild 判断进程内是否运行周期重建。
// memory 后端没有订单来源，重建只会衰减而不会重新统计，因此不调度。
func (c *Config) ScheduledRebuild() bool {
	return c.Graph.Schedule && c.Backend != "memory"
}

// GraphOptions 转换为共购图参数。
func (c *Config) GraphOptions() graph.Options {
	return graph.Options{
		Window:     days(c.Graph.WindowDays),
		MinCount:   c.Graph.MinCount,
		Decay:      c.Graph.Decay,
		WriteBatch: c.Graph.WriteBatch,
	}
}

// WorkerOptions 转换为后台队列参数。
func (c *Config) WorkerOptions() worker.Options {
	return worker.Options{
		QueueSize:   c.Worker.QueueSize,
		Workers:     c.Worker.Workers,
		TaskTimeout: c.Worker.TaskTimeout,
	}
}

// MongoOptions 转换为 MongoStore 参数。
func (c *Config) MongoOptions() store.MongoOptions {
	return store.MongoOptions{
		Collections:    c.Mongo.Collections,
		OrderStatuses:  c.Mongo.OrderStatuses,
		WriteBatchSize: c.Graph.WriteBatch,
		ScanBatchSize:  int32(c.Graph.OrderPage),
	}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// envVarRegex 匹配 ${VAR} 与 ${VAR:-default}。
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
