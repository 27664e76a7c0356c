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

package chunkmath

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestChunkSize(t *testing.T) {
	cases := []struct {
		n    uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
	}
	for _, c := range cases {
		if got := ChunkSize(c.n); got != c.want {
			t.Errorf("ChunkSize(%d) = %d, want %d", c.n, got, c.want)
		}
	}

	if got := ChunkSize(10000); got < 1300 || got > 1500 {
		t.Errorf("ChunkSize(10000) = %d, want in [1300, 1500]", got)
	}
	if got := ChunkSize(10000); got >= 10000 {
		t.Errorf("ChunkSize(10000) = %d, want < n", got)
	}
}

func TestMemorySavingsPercent(t *testing.T) {
	if got := MemorySavingsPercent(0); got != 0.0 {
		t.Errorf("MemorySavingsPercent(0) = %f, want 0", got)
	}
	if got := MemorySavingsPercent(10000); got < 80 || got > 90 {
		t.Errorf("MemorySavingsPercent(10000) = %f, want in [80, 90]", got)
	}
	if got := MemorySavingsPercent(100); got < 25 {
		t.Errorf("MemorySavingsPercent(100) = %f, want >= 25", got)
	}
}

func TestPriorityScore(t *testing.T) {
	amount := uint256.NewInt(1000)
	priority := PriorityScore(true, 100, amount)
	nonPriority := PriorityScore(false, 100, amount)
	if priority <= nonPriority {
		t.Errorf("PriorityScore(true, ...) = %f, want > PriorityScore(false, ...) = %f", priority, nonPriority)
	}
}

func TestPriorityScoreZeroAmount(t *testing.T) {
	got := PriorityScore(false, 0, uint256.NewInt(0))
	if got != 1.0 {
		t.Errorf("PriorityScore(false, 0, 0) = %f, want 1.0 (0^(1/φ)=0, ln(0)->0 clamped to max(_,1))", got)
	}
}

func TestCompoundGrowthSaturates(t *testing.T) {
	maxUint256 := new(uint256.Int).Not(uint256.NewInt(0))
	got := CompoundGrowth(maxUint256, uint256.MustFromDecimal("1000000000000000000"), 5)
	if !got.Eq(maxUint256) {
		t.Errorf("CompoundGrowth with doubling rate on max value should saturate, got %s", got.Dec())
	}
}

func TestCompoundGrowthZeroPeriods(t *testing.T) {
	initial := uint256.NewInt(500)
	got := CompoundGrowth(initial, uint256.NewInt(1), 0)
	if !got.Eq(initial) {
		t.Errorf("CompoundGrowth with 0 periods = %s, want %s", got.Dec(), initial.Dec())
	}
}

func TestEraRewardWithDecay(t *testing.T) {
	base := uint256.NewInt(1000)
	zero := EraRewardWithDecay(base, 0, uint256.NewInt(0))
	if !zero.Eq(base) {
		t.Errorf("EraRewardWithDecay with era=0 = %s, want %s", zero.Dec(), base.Dec())
	}

	tenPercent := uint256.MustFromDecimal("100000000000000000") // 0.1 scaled by 1e18
	decayed := EraRewardWithDecay(base, 1, tenPercent)
	if !decayed.Lt(base) {
		t.Errorf("EraRewardWithDecay(1000, 1, 10%%) = %s, want < %s", decayed.Dec(), base.Dec())
	}
}

func TestEstimateSavings(t *testing.T) {
	gas, savings := EstimateSavings(100)
	wantGas := uint256.NewInt(100 * 14000)
	wantSavings := uint256.NewInt(100 * 86000)
	if !gas.Eq(wantGas) {
		t.Errorf("EstimateSavings(100) gas = %s, want %s", gas.Dec(), wantGas.Dec())
	}
	if !savings.Eq(wantSavings) {
		t.Errorf("EstimateSavings(100) savings = %s, want %s", savings.Dec(), wantSavings.Dec())
	}

	total := new(uint256.Int).Add(gas, savings)
	gasF, _ := gas.ToBig().Float64()
	totalF, _ := total.ToBig().Float64()
	ratio := gasF / totalF
	wantRatio := 14000.0 / 100000.0
	if diff := ratio - wantRatio; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("gas/(gas+savings) = %f, want %f", ratio, wantRatio)
	}
}

func TestEstimateSavingsPercent(t *testing.T) {
	if got := EstimateSavingsPercent(0); got != 0.0 {
		t.Errorf("EstimateSavingsPercent(0) = %f, want 0", got)
	}
	if got := EstimateSavingsPercent(1000); got < 80 || got > 95 {
		t.Errorf("EstimateSavingsPercent(1000) = %f, want in [80, 95]", got)
	}
}

func TestFibonacci(t *testing.T) {
	if got := Fibonacci(10); got != 55 {
		t.Errorf("Fibonacci(10) = %d, want 55", got)
	}
	if got := Fibonacci(30); got < 800000 || got > 900000 {
		t.Errorf("Fibonacci(30) = %d, want in [800000, 900000]", got)
	}
	if got := Fibonacci(0); got != 0 {
		t.Errorf("Fibonacci(0) = %d, want 0", got)
	}
	if got := Fibonacci(1); got != 1 {
		t.Errorf("Fibonacci(1) = %d, want 1", got)
	}
}
