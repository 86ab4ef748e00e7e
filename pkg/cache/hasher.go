package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"rcsp/pkg/domain"
)

// GraphHash вычисляет хеш мультиграфа для использования как ключ кэша
func GraphHash(g *domain.MultiGraph) string {
	if g == nil {
		return ""
	}

	hash := sha256.Sum256(graphToCanonical(g))
	return hex.EncodeToString(hash[:16])
}

// graphToCanonical создаёт детерминированное представление графа.
// Вершины и рёбра уже упорядочены самим графом.
func graphToCanonical(g *domain.MultiGraph) []byte {
	var result []byte

	for _, id := range g.SortedNodes() {
		result = append(result, fmt.Sprintf("n:%q;", id)...)
	}

	for _, e := range g.Edges() {
		result = append(result, fmt.Sprintf("e:%q:%q:%d:%s:%s;",
			e.From, e.To, e.Key, formatFloat(e.Cost), formatFloat(e.Resource))...)
	}

	return result
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(graphHash, enumerator, source, target string, budget float64) string {
	return fmt.Sprintf("rcsp:%s:%s:%s:%s:%s",
		enumerator, graphHash, ShortHash([]byte(source)), ShortHash([]byte(target)), formatFloat(budget))
}

// SolveKeyPrefix префикс ключей результатов для графа
func SolveKeyPrefix(enumerator, graphHash string) string {
	return fmt.Sprintf("rcsp:%s:%s:", enumerator, graphHash)
}

// ShortHash короткий хеш (16 символов)
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
