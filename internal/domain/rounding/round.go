// Package rounding rounds a distribution to fixed decimals while keeping its sum exactly 1,
// using the largest remainder method.
package rounding

import (
	"math"
	"sort"
)

// DefaultDecimals is the precision used when rounding is enabled without an explicit value.
const DefaultDecimals = 2

// MaxDecimals is the finest precision accepted by every entry point. 10^6 units keep the
// remainders well above float64 noise for weights in [0, 1].
const MaxDecimals = 6

// floorEpsilon keeps x*scale from flooring one unit low when x was meant to be exact
// (0.45*100 evaluates to 44.99999999999999 on some inputs).
const floorEpsilon = 1e-9

// residualTolerance triggers the final correction on the last element.
const residualTolerance = 1e-5

// Units returns the integer allocations, in units of 10^-decimals, that sum to exactly
// 10^decimals. Ties on equal remainders go to the lower index.
func Units(weights []float64, decimals int) []int64 {
	decimals = clampDecimals(decimals)
	n := len(weights)
	units := make([]int64, n)
	if n == 0 {
		return units
	}

	scale := math.Pow10(decimals)
	target := int64(scale)

	remainders := make([]float64, n)
	var allocated int64
	for i, w := range weights {
		scaled := w * scale
		floor := math.Floor(scaled + floorEpsilon)
		units[i] = int64(floor)
		remainders[i] = scaled - floor
		allocated += units[i]
	}

	diff := target - allocated
	if diff == 0 {
		return units
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	if diff > 0 {
		sort.SliceStable(order, func(a, b int) bool {
			return remainders[order[a]] > remainders[order[b]]
		})
		for k := int64(0); k < diff; k++ {
			units[order[k%int64(n)]]++
		}
		return units
	}

	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] < remainders[order[b]]
	})
	for k := int64(0); k < -diff; k++ {
		units[order[k%int64(n)]]--
	}
	return units
}

// PreserveSum rounds weights to the given number of decimals so that the rounded values sum
// to 1. Negative decimals are treated as 0. The input is not modified.
func PreserveSum(weights []float64, decimals int) []float64 {
	decimals = clampDecimals(decimals)
	units := Units(weights, decimals)
	scale := math.Pow10(decimals)

	out := make([]float64, len(units))
	var total float64
	for i, u := range units {
		out[i] = float64(u) / scale
		total += out[i]
	}

	if n := len(out); n > 0 {
		if residual := 1 - total; math.Abs(residual) > residualTolerance {
			out[n-1] = math.Round((out[n-1]+residual)*scale) / scale
		}
	}
	return out
}

func clampDecimals(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDecimals {
		return MaxDecimals
	}
	return d
}
