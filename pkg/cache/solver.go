package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rcsp/pkg/domain"
)

// SolverCache типизированный кэш результатов решения RCSP
type SolverCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// SolveQuery параметры задачи, определяющие ключ кэша
type SolveQuery struct {
	Graph      *domain.MultiGraph
	Source     string
	Target     string
	Budget     float64
	Enumerator string
}

// CachedSolveResult кэшированный результат
type CachedSolveResult struct {
	Status        string        `json:"status"`
	Path          []CachedEdge  `json:"path,omitempty"`
	TotalCost     float64       `json:"total_cost"`
	TotalResource float64       `json:"total_resource"`
	LowerBound    float64       `json:"lower_bound"`
	UpperBound    float64       `json:"upper_bound"`
	Multiplier    float64       `json:"multiplier"`
	Iterations    int           `json:"iterations"`
	Paths         int           `json:"paths"`
	SolveTime     time.Duration `json:"solve_time"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// CachedEdge ребро пути
type CachedEdge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Key      int     `json:"key"`
	Cost     float64 `json:"cost"`
	Resource float64 `json:"resource"`
}

// NewSolverCache создаёт кэш для результатов решения
func NewSolverCache(cache Cache, defaultTTL time.Duration) *SolverCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolverCache{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

func (q SolveQuery) key() string {
	return BuildSolveKey(GraphHash(q.Graph), q.Enumerator, q.Source, q.Target, q.Budget)
}

// Get получает кэшированный результат
func (sc *SolverCache) Get(ctx context.Context, q SolveQuery) (*CachedSolveResult, bool, error) {
	key := q.key()

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedSolveResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Повреждённая запись удаляется
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат в кэш
func (sc *SolverCache) Set(ctx context.Context, q SolveQuery, result *CachedSolveResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	result.ComputedAt = time.Now()

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, q.key(), data, ttl)
}

// Invalidate удаляет все результаты для графа
func (sc *SolverCache) Invalidate(ctx context.Context, g *domain.MultiGraph, enumerator string) (int, error) {
	keys, err := sc.cache.Keys(ctx, SolveKeyPrefix(enumerator, GraphHash(g)))
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := sc.cache.Delete(ctx, key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// EdgesFromPath конвертирует путь в кэшируемое представление
func EdgesFromPath(p *domain.Path) []CachedEdge {
	if p == nil {
		return nil
	}
	edges := make([]CachedEdge, len(p.Edges))
	for i, e := range p.Edges {
		edges[i] = CachedEdge{From: e.From, To: e.To, Key: e.Key, Cost: e.Cost, Resource: e.Resource}
	}
	return edges
}

// ToPath восстанавливает путь по рёбрам графа g
func (r *CachedSolveResult) ToPath(g *domain.MultiGraph) (*domain.Path, error) {
	if len(r.Path) == 0 {
		return nil, nil
	}
	edges := make([]*domain.Edge, len(r.Path))
	for i, ce := range r.Path {
		e, ok := g.Edge(ce.From, ce.To, ce.Key)
		if !ok {
			return nil, errors.New("cached path edge not found in graph")
		}
		edges[i] = e
	}
	return domain.NewPath(edges), nil
}
