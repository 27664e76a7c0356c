// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chunkmath provides the pure, stateless math used to order and
// chunk a batch before submission: chunk sizing (a √n·log₂(n) space-time
// tradeoff), priority scoring, and the fixed-point fee/savings model.
package chunkmath

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// Phi is the golden ratio, used to weight priority transactions and to
// shape the age-decay term of the priority score.
const Phi = 1.618033988749894848

// scale is the fixed-point scale for compound-growth arithmetic, matching
// the 1e18 convention used on-chain.
var scale = uint256.MustFromDecimal("1000000000000000000")

// ChunkSize returns the optimal chunk size for a batch of n elements:
// floor(√n) * ceil(log2(n)) for n > 1, and n itself for n <= 1. It bounds
// how much state a chunk planner retains at once.
func ChunkSize(n uint64) uint64 {
	if n <= 1 {
		return n
	}
	sqrtN := uint64(math.Sqrt(float64(n)))
	logN := uint64(math.Ceil(math.Log2(float64(n))))
	return sqrtN * logN
}

// MemorySavingsPercent returns the percentage reduction ChunkSize achieves
// over a flat O(n) allocation. Returns 0 for n == 0.
func MemorySavingsPercent(n uint64) float64 {
	if n == 0 {
		return 0.0
	}
	cs := ChunkSize(n)
	return float64(n-cs) / float64(n) * 100.0
}

// PriorityScore combines the priority flag, intent age, and transfer amount
// into a single ranking value: P * (A^(1/φ) + max(ln(amount), 1)), where
// P = φ for priority intents and 1 otherwise, and A is the age in seconds.
func PriorityScore(priority bool, ageSeconds uint64, amount *uint256.Int) float64 {
	priorityFactor := 1.0
	if priority {
		priorityFactor = Phi
	}
	ageFactor := math.Pow(float64(ageSeconds), 1.0/Phi)
	amountFactor := math.Max(lnUint256(amount), 1.0)
	return priorityFactor * (ageFactor + amountFactor)
}

// lnUint256 computes ln(x) for a 256-bit unsigned integer via big.Float,
// since amounts routinely exceed the range of a float64 mantissa.
func lnUint256(x *uint256.Int) float64 {
	if x == nil || x.IsZero() {
		return 0.0
	}
	bf := new(big.Float).SetInt(x.ToBig())
	f, _ := bf.Float64()
	if f <= 0 || math.IsInf(f, 0) {
		// Overflowed float64 range or non-positive: approximate via bit length,
		// since ln(2^k) = k*ln(2) and big.Float already rounds huge values to +Inf.
		return float64(x.BitLen()) * math.Ln2
	}
	return math.Log(f)
}

// CompoundGrowth computes initial * (1 + rate)^periods using iterative
// fixed-point multiplication at the 1e18 scale, saturating at the maximum
// uint256 value on overflow instead of wrapping. This keeps fee projections
// deterministic across platforms, unlike a floating-point power function.
func CompoundGrowth(initial, rateScaled *uint256.Int, periods uint64) *uint256.Int {
	result := new(uint256.Int).Set(initial)
	if periods == 0 {
		return result
	}
	factor := new(uint256.Int).Add(scale, rateScaled)
	maxUint256 := new(uint256.Int).Not(uint256.NewInt(0))
	for i := uint64(0); i < periods; i++ {
		product, overflow := new(uint256.Int).MulOverflow(result, factor)
		if overflow {
			return maxUint256
		}
		result = product.Div(product, scale)
	}
	return result
}

// EraRewardWithDecay computes baseReward * (1 - decayRate)^era, applied era
// times via repeated fixed-point multiplication at the 1e18 scale. Used by
// the optional staking collaborator's APY estimate.
func EraRewardWithDecay(baseReward *uint256.Int, era uint64, decayRateScaled *uint256.Int) *uint256.Int {
	if era == 0 {
		return new(uint256.Int).Set(baseReward)
	}
	retention := new(uint256.Int).Sub(scale, decayRateScaled)
	result := new(uint256.Int).Set(baseReward)
	for i := uint64(0); i < era; i++ {
		result = result.Mul(result, retention)
		result = result.Div(result, scale)
	}
	return result
}

// EstimateSavings returns the per-batch gas model used to annotate a Batch
// and to feed the metrics aggregator: estimatedGas = n*14000 (the chunked
// settlement path), estimatedSavings = n*100000 - n*14000 = n*86000.
func EstimateSavings(n uint64) (estimatedGas, estimatedSavings *uint256.Int) {
	nInt := uint256.NewInt(n)
	optimized := new(uint256.Int).Mul(nInt, uint256.NewInt(14000))
	traditional := new(uint256.Int).Mul(nInt, uint256.NewInt(100000))
	savings := new(uint256.Int).Sub(traditional, optimized)
	return optimized, savings
}

// EstimateSavingsPercent is the closed-form percentage variant used by the
// metrics aggregator: (n*240000 - (n*14000 + 5000)) / (n*240000) * 100.
func EstimateSavingsPercent(n uint64) float64 {
	if n == 0 {
		return 0.0
	}
	nf := float64(n)
	traditional := nf * 240000.0
	optimized := nf*14000.0 + 5000.0
	return (traditional - optimized) / traditional * 100.0
}

// Fibonacci returns F(n) using an exact iterative computation for small n
// and a φ-based (Binet) approximation for larger n, mirroring the
// compound-growth approximations the fee model is built on.
func Fibonacci(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	if n <= 2 {
		return 1
	}
	if n <= 20 {
		a, b := uint64(0), uint64(1)
		for i := uint64(2); i <= n; i++ {
			a, b = b, a+b
		}
		return b
	}
	const sqrt5 = 2.236067977499789696
	phiN := math.Pow(Phi, float64(n))
	return uint64(math.Round(phiN / sqrt5))
}
