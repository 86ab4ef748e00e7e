package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "RCSP_"
	configEnvVar = "RCSP_CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	usedFile    string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/rcsp/config.yaml",
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Файл не обязателен
	if err := l.loadConfigFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// UsedFile возвращает путь к загруженному файлу конфигурации (пусто, если файла не было)
func (l *Loader) UsedFile() string {
	return l.usedFile
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "rcsp",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// Log
		"log.level":       "info",
		"log.format":      "text",
		"log.output":      "stderr",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   false,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "rcsp",
		"metrics.subsystem": "solver",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "rcsp-svc",
		"tracing.sample_rate":  0.1,

		// Cache
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 10 * time.Minute,
		"cache.max_entries": 1000,

		// Solver
		"solver.enumerator":     "eppstein",
		"solver.print_path":     false,
		"solver.epsilon":        1e-9,
		"solver.dual_tolerance": 1e-6,
		"solver.max_iterations": 10000,
		"solver.max_paths":      0,
		"solver.timeout":        5 * time.Minute,

		// Report
		"report.format":     "xlsx",
		"report.output_dir": ".",
		"report.sheet_name": "Progress",

		// Audit
		"audit.enabled":      false,
		"audit.backend":      "file",
		"audit.file_path":    "rcsp-audit.log",
		"audit.max_size":     50,
		"audit.max_backups":  3,
		"audit.max_age":      30,
		"audit.compress":     false,
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			l.usedFile = configPath
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			l.usedFile = absPath
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return os.ErrNotExist
}

// loadEnv загружает конфигурацию из переменных окружения
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(envPrefix, ".", func(envKey string, value string) (string, interface{}) {
		key := strings.ToLower(strings.TrimPrefix(envKey, envPrefix))

		// Поля с подчёркиванием в имени требуют явного маппинга
		if mappedKey, ok := envKeyMappings[key]; ok {
			return mappedKey, value
		}
		// RCSP_CONFIG_PATH и прочие служебные переменные не являются ключами конфига
		if key == "config_path" || !strings.Contains(key, "_") {
			return "", nil
		}
		return strings.Replace(key, "_", ".", 1), value
	}), nil)
}

// envKeyMappings - маппинг переменных окружения на ключи конфига
var envKeyMappings = map[string]string{
	// Log
	"log_level":       "log.level",
	"log_format":      "log.format",
	"log_output":      "log.output",
	"log_file_path":   "log.file_path",
	"log_max_size":    "log.max_size",
	"log_max_backups": "log.max_backups",
	"log_max_age":     "log.max_age",
	"log_compress":    "log.compress",

	// Tracing
	"tracing_service_name": "tracing.service_name",
	"tracing_sample_rate":  "tracing.sample_rate",

	// Cache
	"cache_default_ttl": "cache.default_ttl",
	"cache_max_entries": "cache.max_entries",

	// Solver
	"solver_print_path":     "solver.print_path",
	"solver_dual_tolerance": "solver.dual_tolerance",
	"solver_max_iterations": "solver.max_iterations",
	"solver_max_paths":      "solver.max_paths",

	// Report
	"report_output_dir": "report.output_dir",
	"report_sheet_name": "report.sheet_name",

	// Audit
	"audit_file_path":    "audit.file_path",
	"audit_max_size":     "audit.max_size",
	"audit_max_backups":  "audit.max_backups",
	"audit_max_age":      "audit.max_age",
	"audit_buffer_size":  "audit.buffer_size",
	"audit_flush_period": "audit.flush_period",
}
