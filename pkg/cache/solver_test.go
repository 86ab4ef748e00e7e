package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcsp/pkg/domain"
)

func TestSolverCache_RoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) Cache{
		"memory": func(t *testing.T) Cache {
			return newTestMemoryCache(t, 10)
		},
		"redis": func(t *testing.T) Cache {
			c, _ := newTestRedisCache(t)
			return c
		},
	}

	for name, newCache := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := diamond()
			sc := NewSolverCache(newCache(t), time.Minute)

			q := SolveQuery{Graph: g, Source: "A", Target: "D", Budget: 3, Enumerator: "eppstein"}

			_, found, err := sc.Get(ctx, q)
			require.NoError(t, err)
			assert.False(t, found)

			ac, _ := g.Edge("A", "C", 0)
			cd, _ := g.Edge("C", "D", 0)
			path := domain.NewPath([]*domain.Edge{ac, cd})

			require.NoError(t, sc.Set(ctx, q, &CachedSolveResult{
				Status:        "optimal",
				Path:          EdgesFromPath(path),
				TotalCost:     path.Cost,
				TotalResource: path.Resource,
				LowerBound:    5,
				UpperBound:    5,
				Multiplier:    0.375,
				Iterations:    1,
			}, 0))

			cached, found, err := sc.Get(ctx, q)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "optimal", cached.Status)
			assert.Equal(t, 5.0, cached.TotalCost)
			assert.False(t, cached.ComputedAt.IsZero())

			restored, err := cached.ToPath(g)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "C", "D"}, restored.Nodes())

			// Другой бюджет - другой ключ
			q2 := q
			q2.Budget = 12
			_, found, err = sc.Get(ctx, q2)
			require.NoError(t, err)
			assert.False(t, found)

			n, err := sc.Invalidate(ctx, g, "eppstein")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, found, err = sc.Get(ctx, q)
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestSolverCache_CorruptedEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(&Options{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	sc := NewSolverCache(c, 0)
	q := SolveQuery{Graph: diamond(), Source: "A", Target: "D", Budget: 3, Enumerator: "yen"}

	require.NoError(t, mr.Set(q.key(), "{not json"))

	_, found, err := sc.Get(ctx, q)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(q.key()), "corrupted entry should be removed")
}

func TestCachedSolveResult_ToPathMissingEdge(t *testing.T) {
	r := &CachedSolveResult{Path: []CachedEdge{{From: "X", To: "Y"}}}
	_, err := r.ToPath(diamond())
	assert.Error(t, err)

	empty := &CachedSolveResult{}
	p, err := empty.ToPath(diamond())
	assert.NoError(t, err)
	assert.Nil(t, p)
}
