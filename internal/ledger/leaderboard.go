package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"riy-server/internal/models"
	"riy-server/internal/waste"
)

const (
	DefaultLeaderboardSize = 10
	DashboardSize          = 5
	MaxLeaderboardSize     = 100
)

// LeaderboardEntry never carries contact fields or credentials.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	ItemsRecycled int    `json:"items_recycled"`
}

type Stats struct {
	TotalUsers         int64              `json:"total_users"`
	TotalItemsRecycled int64              `json:"total_items_recycled"`
	TotalPoints        int64              `json:"total_points"`
	TopUsers           []LeaderboardEntry `json:"top_users"`
}

// TopN returns the n highest scoring users. Equal points are ordered by user
// id, so earlier registrations rank first.
func (s *Store) TopN(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	if n > MaxLeaderboardSize {
		n = MaxLeaderboardSize
	}

	rows := []LeaderboardEntry{}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("name", "points", "items_recycled").
		Order("points DESC").
		Order("id ASC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %w", waste.ErrPersistence, err)
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var agg struct {
		TotalUsers         int64
		TotalItemsRecycled int64
		TotalPoints        int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("COUNT(*) AS total_users, COALESCE(SUM(items_recycled), 0) AS total_items_recycled, COALESCE(SUM(points), 0) AS total_points").
		Scan(&agg).Error
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", waste.ErrPersistence, err)
	}

	top, err := s.TopN(ctx, DashboardSize)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalUsers:         agg.TotalUsers,
		TotalItemsRecycled: agg.TotalItemsRecycled,
		TotalPoints:        agg.TotalPoints,
		TopUsers:           top,
	}, nil
}

// Standing is one user's place on the leaderboard.
type Standing struct {
	Rank             int   `json:"rank"`
	TotalUsers       int64 `json:"total_users"`
	Points           int   `json:"points"`
	ItemsRecycled    int   `json:"items_recycled"`
	PointsToNextRank int   `json:"points_to_next_rank"` // 0 when already first
}

// Standing ranks userID with the same ordering as TopN.
func (s *Store) Standing(ctx context.Context, userID uint) (Standing, error) {
	t, err := s.Totals(ctx, userID)
	if err != nil {
		return Standing{}, err
	}

	db := s.db.WithContext(ctx).Model(&models.User{})
	var ahead, total int64
	err = db.Session(&gorm.Session{}).
		Where("points > ? OR (points = ? AND id < ?)", t.Points, t.Points, userID).
		Count(&ahead).Error
	if err == nil {
		err = db.Session(&gorm.Session{}).Count(&total).Error
	}
	if err != nil {
		return Standing{}, fmt.Errorf("%w: %w", waste.ErrPersistence, err)
	}

	st := Standing{
		Rank:          int(ahead) + 1,
		TotalUsers:    total,
		Points:        t.Points,
		ItemsRecycled: t.ItemsRecycled,
	}
	if ahead > 0 {
		var next models.User
		err := s.db.WithContext(ctx).
			Select("points").
			Where("points > ?", t.Points).
			Order("points ASC").
			Take(&next).Error
		switch {
		case err == nil:
			st.PointsToNextRank = next.Points - t.Points
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Only users tied on points and registered earlier are ahead.
		default:
			return Standing{}, fmt.Errorf("%w: %w", waste.ErrPersistence, err)
		}
	}
	return st, nil
}
