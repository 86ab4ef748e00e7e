// Package audit keeps a journal of solver runs. Each solve appends one entry
// describing the instance, the outcome and the final bounds; file-backed
// journals can be queried afterwards.
package audit

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"rcsp/pkg/config"
)

// Outcome represents how a solve ended from the caller's point of view.
type Outcome string

const (
	// OutcomeSuccess indicates the instance was answered: optimal, infeasible or unreachable.
	OutcomeSuccess Outcome = "SUCCESS"
	// OutcomeFailure indicates invalid input, a limit or an internal error.
	OutcomeFailure Outcome = "FAILURE"
)

// Entry is a single journal record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	RunID     string    `json:"run_id"`

	// Instance
	GraphFile  string  `json:"graph_file,omitempty"`
	GraphHash  string  `json:"graph_hash,omitempty"`
	Nodes      int     `json:"nodes"`
	Edges      int     `json:"edges"`
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Budget     float64 `json:"budget"`
	Enumerator string  `json:"enumerator"`

	// Outcome
	Outcome       Outcome  `json:"outcome"`
	Status        string   `json:"status"`
	CacheHit      bool     `json:"cache_hit,omitempty"`
	TotalCost     *float64 `json:"total_cost,omitempty"`
	TotalResource *float64 `json:"total_resource,omitempty"`
	LowerBound    *float64 `json:"lower_bound,omitempty"` // omitted while infinite
	UpperBound    *float64 `json:"upper_bound,omitempty"`
	Iterations    int      `json:"iterations"`
	Paths         int      `json:"paths"`
	DurationMs    int64    `json:"duration_ms"`

	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger is the interface that journal backends must implement.
type Logger interface {
	// Log records a solve.
	Log(ctx context.Context, entry *Entry) error

	// Query retrieves entries newest first. Not all backends support it.
	Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// Close flushes pending entries and releases resources.
	Close() error
}

// QueryFilter defines criteria for querying journal entries.
type QueryFilter struct {
	StartTime  *time.Time // inclusive
	EndTime    *time.Time // exclusive
	RunID      string
	Status     string
	Enumerator string
	Outcome    Outcome
	Limit      int
	Offset     int
}

// Match reports whether e satisfies every set criterion of the filter.
func (f *QueryFilter) Match(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && !e.Timestamp.Before(*f.EndTime) {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Enumerator != "" && e.Enumerator != f.Enumerator {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	return true
}

// Config holds configuration parameters for the journal.
type Config struct {
	Enabled     bool          // If true, solves are journaled.
	Backend     string        // "file" or "stdout".
	FilePath    string        // Journal path for the file backend.
	MaxSize     int           // MB before rotation.
	MaxBackups  int           // Rotated files to keep.
	MaxAge      int           // Days to keep rotated files.
	Compress    bool          // Gzip rotated files.
	BufferSize  int           // Size of the asynchronous write buffer.
	FlushPeriod time.Duration // Period between buffer flushes.
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "file",
		FilePath:    "rcsp-audit.log",
		MaxSize:     50,
		MaxBackups:  3,
		MaxAge:      30,
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
	}
}

// FromConfig converts the audit section of the application config.
// Zero values fall back to DefaultConfig.
func FromConfig(cfg *config.AuditConfig) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Enabled = cfg.Enabled
	if cfg.Backend != "" {
		c.Backend = cfg.Backend
	}
	if cfg.FilePath != "" {
		c.FilePath = cfg.FilePath
	}
	if cfg.MaxSize > 0 {
		c.MaxSize = cfg.MaxSize
	}
	if cfg.MaxBackups > 0 {
		c.MaxBackups = cfg.MaxBackups
	}
	if cfg.MaxAge > 0 {
		c.MaxAge = cfg.MaxAge
	}
	c.Compress = cfg.Compress
	if cfg.BufferSize > 0 {
		c.BufferSize = cfg.BufferSize
	}
	if cfg.FlushPeriod > 0 {
		c.FlushPeriod = cfg.FlushPeriod
	}
	return c
}

// Builder provides a fluent API for constructing an Entry object.
type Builder struct {
	entry *Entry
}

// NewEntry creates a Builder initialized with a timestamp and an empty metadata map.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

// Service sets the name of the service that ran the solve.
func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

// Run sets the solver run id.
func (b *Builder) Run(runID string) *Builder {
	b.entry.RunID = runID
	return b
}

// Instance sets the problem parameters.
func (b *Builder) Instance(source, target string, budget float64, enumerator string) *Builder {
	b.entry.Source = source
	b.entry.Target = target
	b.entry.Budget = budget
	b.entry.Enumerator = enumerator
	return b
}

// Graph sets the graph origin and size.
func (b *Builder) Graph(file, hash string, nodes, edges int) *Builder {
	b.entry.GraphFile = file
	b.entry.GraphHash = hash
	b.entry.Nodes = nodes
	b.entry.Edges = edges
	return b
}

// Outcome sets the outcome and solver status.
func (b *Builder) Outcome(o Outcome, status string) *Builder {
	b.entry.Outcome = o
	b.entry.Status = status
	return b
}

// Result sets the incumbent and final bounds. Infinite values are left unset.
func (b *Builder) Result(cost, resource, lb, ub float64) *Builder {
	b.entry.TotalCost = finite(cost)
	b.entry.TotalResource = finite(resource)
	b.entry.LowerBound = finite(lb)
	b.entry.UpperBound = finite(ub)
	return b
}

// Counts sets the iteration and enumerated path counts.
func (b *Builder) Counts(iterations, paths int) *Builder {
	b.entry.Iterations = iterations
	b.entry.Paths = paths
	return b
}

// CacheHit marks a result served from the cache.
func (b *Builder) CacheHit(hit bool) *Builder {
	b.entry.CacheHit = hit
	return b
}

// Duration sets the duration of the solve in milliseconds.
func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error sets the error code and message.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta adds a key-value pair to the metadata map of the entry.
func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build finalizes the Entry. It generates a unique ID if one is not already set.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = uuid.NewString()
	}
	if len(b.entry.Metadata) == 0 {
		b.entry.Metadata = nil
	}
	return b.entry
}

// MarshalJSON customizes the JSON serialization of an Entry.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal((*Alias)(e))
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
