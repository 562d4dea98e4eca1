package waste

// ScanResult is the combined answer for one scan.
//
// UserPoints is only set when the reward was durably recorded for an
// authenticated user. PointsRecorded is false for anonymous scans and when
// the ledger write failed; PointsAwarded still carries the computed reward
// so the client can show what the scan was worth.
type ScanResult struct {
	Name                 string    `json:"name"`
	Category             Category  `json:"category"`
	Confidence           *float64  `json:"confidence,omitempty"`
	IsDIYUsable          bool      `json:"is_diy_usable"`
	DisposalInstructions string    `json:"disposal_instructions"`
	DIYIdeas             []DIYIdea `json:"diy_ideas"`
	PointsAwarded        int       `json:"points_awarded"`
	UserPoints           *int      `json:"user_points"`
	ItemsRecycled        *int      `json:"items_recycled,omitempty"`
	PointsRecorded       bool      `json:"points_recorded"`
	Degraded             bool      `json:"degraded,omitempty"`
	ImageURL             string    `json:"image_url,omitempty"`
}

// NewScanResult fills the knowledge and reward parts of a result. Ledger
// fields are left for the caller.
func NewScanResult(name string, k Knowledge, confidence *float64, r Reward) *ScanResult {
	if name == "" {
		name = k.ItemName
	}
	ideas := k.DIYIdeas
	if ideas == nil {
		ideas = []DIYIdea{}
	}
	return &ScanResult{
		Name:                 name,
		Category:             k.Category,
		Confidence:           confidence,
		IsDIYUsable:          k.IsDIYUsable,
		DisposalInstructions: k.DisposalInstructions,
		DIYIdeas:             ideas,
		PointsAwarded:        r.Points,
	}
}
