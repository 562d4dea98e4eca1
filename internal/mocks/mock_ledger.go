package mocks

import (
	"context"

	"riy-server/internal/ledger"
	"riy-server/internal/waste"
)

// MockLedger implements scan.Ledger for testing
type MockLedger struct {
	ApplyRewardFunc func(ctx context.Context, userID uint, r waste.Reward) (ledger.Totals, error)
	Calls           int
}

// ApplyReward calls ApplyRewardFunc, or echoes the reward as the new totals
func (m *MockLedger) ApplyReward(ctx context.Context, userID uint, r waste.Reward) (ledger.Totals, error) {
	m.Calls++
	if m.ApplyRewardFunc != nil {
		return m.ApplyRewardFunc(ctx, userID, r)
	}
	return ledger.Totals{Points: r.Points, ItemsRecycled: r.ItemsRecycled}, nil
}
