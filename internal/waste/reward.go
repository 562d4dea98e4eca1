package waste

import "fmt"

// DefaultPoints is the flat award for one scan.
const DefaultPoints = 5

// Reward is the ledger increment produced by one successful scan.
type Reward struct {
	Points        int `json:"points"`
	ItemsRecycled int `json:"items_recycled"`
}

// RewardPolicy computes rewards from a category alone.
type RewardPolicy struct {
	defaultPoints int
	points        map[Category]int
}

// NewRewardPolicy rejects any non-positive value so Compute can never award
// zero or negative points.
func NewRewardPolicy(defaultPoints int, table map[Category]int) (*RewardPolicy, error) {
	if defaultPoints <= 0 {
		return nil, fmt.Errorf("%w: default is %d", ErrInvalidReward, defaultPoints)
	}
	points := make(map[Category]int, len(table))
	for c, p := range table {
		if p <= 0 {
			return nil, fmt.Errorf("%w: %s is %d", ErrInvalidReward, c, p)
		}
		points[c] = p
	}
	return &RewardPolicy{defaultPoints: defaultPoints, points: points}, nil
}

// FlatRewardPolicy awards DefaultPoints for every category.
func FlatRewardPolicy() *RewardPolicy {
	return &RewardPolicy{defaultPoints: DefaultPoints, points: map[Category]int{}}
}

func (p *RewardPolicy) Compute(c Category) Reward {
	points, ok := p.points[c]
	if !ok {
		points = p.defaultPoints
	}
	return Reward{Points: points, ItemsRecycled: 1}
}
