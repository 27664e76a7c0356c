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

package staking

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"vsa/internal/model"
	"vsa/internal/relayer"
)

type fakeContract struct {
	active         bool
	staked         *uint256.Int
	era            uint64
	pending        *uint256.Int
	stakeErr       error
	claimErr       error
	claimedAmount  *uint256.Int
}

func (f *fakeContract) StakeFisher(ctx context.Context, amount *uint256.Int) error {
	return f.stakeErr
}
func (f *fakeContract) ClaimFisherRewards(ctx context.Context, era uint64) (*uint256.Int, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return f.claimedAmount, nil
}
func (f *fakeContract) IsFisherActive(ctx context.Context, fisher model.Address) (bool, error) {
	return f.active, nil
}
func (f *fakeContract) GetStakedAmount(ctx context.Context, fisher model.Address) (*uint256.Int, error) {
	return f.staked, nil
}
func (f *fakeContract) GetCurrentEra(ctx context.Context) (uint64, error) {
	return f.era, nil
}
func (f *fakeContract) GetPendingRewards(ctx context.Context, fisher model.Address, era uint64) (*uint256.Int, error) {
	return f.pending, nil
}

func TestRegisterAndStakeRejectsBelowMinimum(t *testing.T) {
	contract := &fakeContract{}
	client := NewClient(contract, model.Address{}, model.Address{}, uint256.NewInt(1000))

	err := client.RegisterAndStake(context.Background(), uint256.NewInt(500))
	if relayer.KindOf(err) != relayer.KindContract {
		t.Errorf("RegisterAndStake() error kind = %v, want KindContract", relayer.KindOf(err))
	}
}

func TestRegisterAndStakeAcceptsAtOrAboveMinimum(t *testing.T) {
	contract := &fakeContract{}
	client := NewClient(contract, model.Address{}, model.Address{}, uint256.NewInt(1000))

	if err := client.RegisterAndStake(context.Background(), uint256.NewInt(1000)); err != nil {
		t.Errorf("RegisterAndStake() unexpected error: %v", err)
	}
}

func TestRegisterAndStakeWrapsContractError(t *testing.T) {
	contract := &fakeContract{stakeErr: errors.New("reverted")}
	client := NewClient(contract, model.Address{}, model.Address{}, uint256.NewInt(1))

	err := client.RegisterAndStake(context.Background(), uint256.NewInt(100))
	if relayer.KindOf(err) != relayer.KindContract {
		t.Errorf("RegisterAndStake() error kind = %v, want KindContract", relayer.KindOf(err))
	}
}

func TestStatusComposesContractCalls(t *testing.T) {
	contract := &fakeContract{
		active:  true,
		staked:  uint256.NewInt(1000),
		era:     5,
		pending: uint256.NewInt(10),
	}
	client := NewClient(contract, model.Address{}, model.Address{}, uint256.NewInt(1))

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() unexpected error: %v", err)
	}
	if !status.IsActive {
		t.Errorf("IsActive = false, want true")
	}
	if status.CurrentEra != 5 {
		t.Errorf("CurrentEra = %d, want 5", status.CurrentEra)
	}
	if status.EstimatedAPY <= 0 {
		t.Errorf("EstimatedAPY = %f, want > 0", status.EstimatedAPY)
	}
}

func TestClaimRewardsWrapsError(t *testing.T) {
	contract := &fakeContract{claimErr: errors.New("nothing to claim")}
	client := NewClient(contract, model.Address{}, model.Address{}, uint256.NewInt(1))

	_, err := client.ClaimRewards(context.Background(), 3)
	if relayer.KindOf(err) != relayer.KindContract {
		t.Errorf("ClaimRewards() error kind = %v, want KindContract", relayer.KindOf(err))
	}
}

func TestProjectedEraRewardZeroEras(t *testing.T) {
	base := uint256.NewInt(1000)
	got := ProjectedEraReward(base, 0, uint256.NewInt(0))
	if !got.Eq(base) {
		t.Errorf("ProjectedEraReward with 0 eras = %s, want %s", got.Dec(), base.Dec())
	}
}
