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

// Package staking is the optional staking-contract client: registering the
// relayer's own stake, claiming era-based rewards, and reporting status —
// a straight RPC wrapper around a contract out of this module's scope.
package staking

import (
	"context"

	"github.com/holiman/uint256"

	"vsa/internal/chunkmath"
	"vsa/internal/model"
	"vsa/internal/relayer"
)

// Status mirrors the staking contract's reportable state for this relayer.
type Status struct {
	IsActive        bool
	StakedAmount    *uint256.Int
	CurrentEra      uint64
	PendingRewards  *uint256.Int
	EstimatedAPY    float64
}

// Contract is the out-of-scope staking-contract RPC boundary: stake, claim
// rewards, and read status/era. It has no unstake call.
type Contract interface {
	StakeFisher(ctx context.Context, amount *uint256.Int) error
	ClaimFisherRewards(ctx context.Context, era uint64) (*uint256.Int, error)
	IsFisherActive(ctx context.Context, fisher model.Address) (bool, error)
	GetStakedAmount(ctx context.Context, fisher model.Address) (*uint256.Int, error)
	GetCurrentEra(ctx context.Context) (uint64, error)
	GetPendingRewards(ctx context.Context, fisher model.Address, era uint64) (*uint256.Int, error)
}

// Client wraps a Contract with the minimum stake rule and the APY estimate
// the original staking collaborator computed.
type Client struct {
	contract       Contract
	stakingAddress model.Address
	fisherAddress  model.Address
	minStake       *uint256.Int
}

// NewClient builds a staking Client.
func NewClient(contract Contract, stakingAddress, fisherAddress model.Address, minStake *uint256.Int) *Client {
	return &Client{contract: contract, stakingAddress: stakingAddress, fisherAddress: fisherAddress, minStake: minStake}
}

// RegisterAndStake stakes amount, rejecting any amount below the configured
// minimum before ever calling the contract.
func (c *Client) RegisterAndStake(ctx context.Context, amount *uint256.Int) error {
	if amount.Lt(c.minStake) {
		return relayer.Errorf(relayer.KindContract, "stake amount %s below minimum %s", amount.Dec(), c.minStake.Dec())
	}
	if err := c.contract.StakeFisher(ctx, amount); err != nil {
		return relayer.Wrap(relayer.KindContract, "stake failed", err)
	}
	return nil
}

// ClaimRewards claims the pending reward for era.
func (c *Client) ClaimRewards(ctx context.Context, era uint64) (*uint256.Int, error) {
	reward, err := c.contract.ClaimFisherRewards(ctx, era)
	if err != nil {
		return nil, relayer.Wrap(relayer.KindContract, "claim failed", err)
	}
	return reward, nil
}

// Status reads the relayer's current staking state and estimates its APY
// from the pending reward for the current era.
func (c *Client) Status(ctx context.Context) (Status, error) {
	isActive, err := c.contract.IsFisherActive(ctx, c.fisherAddress)
	if err != nil {
		return Status{}, relayer.Wrap(relayer.KindContract, "failed to check status", err)
	}
	staked, err := c.contract.GetStakedAmount(ctx, c.fisherAddress)
	if err != nil {
		return Status{}, relayer.Wrap(relayer.KindContract, "failed to get stake", err)
	}
	era, err := c.contract.GetCurrentEra(ctx)
	if err != nil {
		return Status{}, relayer.Wrap(relayer.KindContract, "failed to get era", err)
	}
	pending, err := c.contract.GetPendingRewards(ctx, c.fisherAddress, era)
	if err != nil {
		return Status{}, relayer.Wrap(relayer.KindContract, "failed to get pending rewards", err)
	}

	return Status{
		IsActive:       isActive,
		StakedAmount:   staked,
		CurrentEra:     era,
		PendingRewards: pending,
		EstimatedAPY:   estimatedAPY(staked, pending),
	}, nil
}

// estimatedAPY is a simple estimate: (pendingRewards/staked) * eras-per-year
// * 100, assuming one era per day (365 eras/year), consistent with the
// original staking collaborator's approximation.
func estimatedAPY(staked, pending *uint256.Int) float64 {
	if staked == nil || staked.IsZero() {
		return 0.0
	}
	stakedF, _ := staked.ToBig().Float64()
	pendingF := 0.0
	if pending != nil {
		pendingF, _ = pending.ToBig().Float64()
	}
	if stakedF == 0 {
		return 0.0
	}
	const erasPerYear = 365.0
	return (pendingF / stakedF) * erasPerYear * 100.0
}

// ProjectedEraReward projects a reward forward by a number of eras under a
// decay rate, reusing the chunk-math compound/era model so the staking
// collaborator and the fee model stay numerically consistent.
func ProjectedEraReward(baseReward *uint256.Int, eras uint64, decayRateScaled *uint256.Int) *uint256.Int {
	return chunkmath.EraRewardWithDecay(baseReward, eras, decayRateScaled)
}
