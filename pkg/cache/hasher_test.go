package cache

import (
	"strings"
	"testing"

	"rcsp/pkg/domain"
)

func diamond() *domain.MultiGraph {
	g := domain.NewMultiGraph()
	g.AddEdge("A", "B", 1, 5)
	g.AddEdge("A", "C", 4, 1)
	g.AddEdge("B", "D", 1, 5)
	g.AddEdge("C", "D", 1, 1)
	return g
}

func TestGraphHash(t *testing.T) {
	if GraphHash(nil) != "" {
		t.Error("nil graph should hash to empty string")
	}

	h1 := GraphHash(diamond())
	if len(h1) != 32 {
		t.Errorf("hash length = %d, want 32", len(h1))
	}

	// Порядок добавления рёбер не влияет на хеш
	g := domain.NewMultiGraph()
	g.AddEdge("C", "D", 1, 1)
	g.AddEdge("B", "D", 1, 5)
	g.AddEdge("A", "C", 4, 1)
	g.AddEdge("A", "B", 1, 5)
	if GraphHash(g) != h1 {
		t.Error("hash should not depend on insertion order")
	}

	// Изменение ресурса меняет хеш
	g2 := diamond()
	g2.AddEdge("A", "B", 1, 5)
	if GraphHash(g2) == h1 {
		t.Error("parallel edge should change the hash")
	}
}

func TestBuildSolveKey(t *testing.T) {
	hash := GraphHash(diamond())
	key := BuildSolveKey(hash, "eppstein", "A", "D", 3)

	if !strings.HasPrefix(key, SolveKeyPrefix("eppstein", hash)) {
		t.Errorf("key %s should start with prefix", key)
	}
	if key == BuildSolveKey(hash, "eppstein", "A", "D", 3.5) {
		t.Error("budget should be part of the key")
	}
	if key == BuildSolveKey(hash, "yen", "A", "D", 3) {
		t.Error("enumerator should be part of the key")
	}
}

func TestShortHash(t *testing.T) {
	if len(ShortHash([]byte("A"))) != 16 {
		t.Error("ShortHash should return 16 hex characters")
	}
}
