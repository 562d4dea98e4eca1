// Package ledger keeps each user's points and recycled item count, and the
// leaderboard read over them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"riy-server/internal/models"
	"riy-server/internal/waste"
)

type Totals struct {
	Points        int `json:"points"`
	ItemsRecycled int `json:"items_recycled"`
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ApplyReward adds r to the user's totals with a single UPDATE so concurrent
// scans for the same user cannot lose an increment. Both columns change in
// the same statement, so either both are applied or neither is.
func (s *Store) ApplyReward(ctx context.Context, userID uint, r waste.Reward) (Totals, error) {
	if r.Points <= 0 || r.ItemsRecycled <= 0 {
		return Totals{}, fmt.Errorf("%w: got %+v", waste.ErrInvalidReward, r)
	}

	var t Totals
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"points":         gorm.Expr("points + ?", r.Points),
			"items_recycled": gorm.Expr("items_recycled + ?", r.ItemsRecycled),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return waste.ErrUserNotFound
		}
		return readTotals(tx, userID, &t)
	})
	if err != nil {
		return Totals{}, wrap(err)
	}
	return t, nil
}

// SetTotals overwrites the totals with absolute values. A nil pointer leaves
// that column unchanged.
func (s *Store) SetTotals(ctx context.Context, userID uint, points, itemsRecycled *int) (Totals, error) {
	if (points != nil && *points < 0) || (itemsRecycled != nil && *itemsRecycled < 0) {
		return Totals{}, waste.ErrNegativeTotals
	}

	updates := map[string]any{"updated_at": time.Now()}
	if points != nil {
		updates["points"] = *points
	}
	if itemsRecycled != nil {
		updates["items_recycled"] = *itemsRecycled
	}

	var t Totals
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return waste.ErrUserNotFound
		}
		return readTotals(tx, userID, &t)
	})
	if err != nil {
		return Totals{}, wrap(err)
	}
	return t, nil
}

func (s *Store) Totals(ctx context.Context, userID uint) (Totals, error) {
	var t Totals
	if err := readTotals(s.db.WithContext(ctx), userID, &t); err != nil {
		return Totals{}, wrap(err)
	}
	return t, nil
}

func readTotals(tx *gorm.DB, userID uint, t *Totals) error {
	err := tx.Model(&models.User{}).Select("points", "items_recycled").Where("id = ?", userID).Take(t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return waste.ErrUserNotFound
	}
	return err
}

func wrap(err error) error {
	if errors.Is(err, waste.ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", waste.ErrPersistence, err)
}
