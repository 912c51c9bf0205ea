package demo

import (
	"math"
	"math/rand"
)

func pick[T any](options ...T) T {
	return options[rand.Intn(len(options))]
}

func randBetween(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
