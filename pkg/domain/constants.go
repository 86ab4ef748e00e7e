package domain

import "math"

// Математические константы
const (
	Epsilon          = 1e-9
	Infinity         = math.MaxFloat64
	NegativeInfinity = -math.MaxFloat64
)

// Параметры двойственного алгоритма
const (
	// DualTolerance порог сходимости значения двойственной функции
	DualTolerance = 1e-6
	// NoKey признак отсутствующего ключа параллельного ребра
	NoKey = -1
)

// IsInfinite проверяет, что расстояние недостижимо
func IsInfinite(v float64) bool {
	return v >= Infinity-Epsilon || math.IsInf(v, 1)
}

// FloatLess проверяет a < b с учётом Epsilon
func FloatLess(a, b float64) bool {
	return a < b-Epsilon
}

// FloatGreater проверяет a > b с учётом Epsilon
func FloatGreater(a, b float64) bool {
	return a > b+Epsilon
}

// IsNegative проверяет, отрицательно ли значение
func IsNegative(v float64) bool {
	return v < -Epsilon
}

// ClampNonNegative обрезает численный шум около нуля снизу
func ClampNonNegative(v float64) float64 {
	if v < 0 && v > -Epsilon {
		return 0
	}
	return v
}

// RelativeGap возвращает относительный разрыв между верхней и нижней оценками
func RelativeGap(lb, ub float64) float64 {
	if math.IsInf(lb, 1) {
		return 0
	}
	if IsInfinite(ub) {
		return math.Inf(1)
	}
	denom := math.Abs(ub)
	if denom < Epsilon {
		denom = 1
	}
	gap := (ub - lb) / denom
	if gap < 0 {
		return 0
	}
	return gap
}
