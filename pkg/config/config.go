// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	Cache   CacheConfig   `koanf:"cache"`
	Solver  SolverConfig  `koanf:"solver"`
	Report  ReportConfig  `koanf:"report"`
	Audit   AuditConfig   `koanf:"audit"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig - настройки кэширования результатов
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SolverConfig - параметры двойственного алгоритма
type SolverConfig struct {
	Enumerator    string        `koanf:"enumerator"` // eppstein, yen
	PrintPath     bool          `koanf:"print_path"`
	Epsilon       float64       `koanf:"epsilon"`
	DualTolerance float64       `koanf:"dual_tolerance"`
	MaxIterations int           `koanf:"max_iterations"`
	MaxPaths      int           `koanf:"max_paths"` // 0 - без ограничения
	Timeout       time.Duration `koanf:"timeout"`
}

// ReportConfig - настройки выгрузки хода решения
type ReportConfig struct {
	Format    string `koanf:"format"` // xlsx, csv, json
	OutputDir string `koanf:"output_dir"`
	SheetName string `koanf:"sheet_name"`
}

// AuditConfig - журнал запусков решателя
type AuditConfig struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"` // file, stdout
	FilePath    string        `koanf:"file_path"`
	MaxSize     int           `koanf:"max_size"` // MB
	MaxBackups  int           `koanf:"max_backups"`
	MaxAge      int           `koanf:"max_age"` // дней
	Compress    bool          `koanf:"compress"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validEnumerators := map[string]bool{"eppstein": true, "yen": true}
	if !validEnumerators[strings.ToLower(c.Solver.Enumerator)] {
		errs = append(errs, fmt.Sprintf("solver.enumerator must be one of: eppstein, yen, got %s", c.Solver.Enumerator))
	}
	if c.Solver.Epsilon <= 0 {
		errs = append(errs, "solver.epsilon must be positive")
	}
	if c.Solver.DualTolerance <= 0 {
		errs = append(errs, "solver.dual_tolerance must be positive")
	}
	if c.Solver.MaxIterations <= 0 {
		errs = append(errs, "solver.max_iterations must be positive")
	}
	if c.Solver.MaxPaths < 0 {
		errs = append(errs, "solver.max_paths must not be negative")
	}

	validDrivers := map[string]bool{"memory": true, "redis": true}
	if c.Cache.Enabled && !validDrivers[c.Cache.Driver] {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	validFormats := map[string]bool{"xlsx": true, "csv": true, "json": true}
	if c.Report.Format != "" && !validFormats[strings.ToLower(c.Report.Format)] {
		errs = append(errs, fmt.Sprintf("report.format must be one of: xlsx, csv, json, got %s", c.Report.Format))
	}

	validBackends := map[string]bool{"file": true, "stdout": true}
	if c.Audit.Enabled && !validBackends[c.Audit.Backend] {
		errs = append(errs, fmt.Sprintf("audit.backend must be one of: file, stdout, got %s", c.Audit.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
