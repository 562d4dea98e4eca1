package waste

import "errors"

// Scan errors
var (
	ErrMissingImage         = errors.New("no image supplied")
	ErrClassificationFailed = errors.New("classification failed")
	ErrUnknownCategory      = errors.New("classifier label outside the known categories")
)

// Ledger errors
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrPersistence    = errors.New("points could not be recorded")
	ErrNegativeTotals = errors.New("points and items recycled must not be negative")
)

// Knowledge file errors
var (
	ErrInvalidKnowledge = errors.New("invalid knowledge base")
	ErrInvalidReward    = errors.New("reward points must be positive")
)
