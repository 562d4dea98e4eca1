// Package scan runs one scan end to end: classify the image, look up the
// category, compute the reward and record it for the signed-in user.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"riy-server/internal/ai"
	"riy-server/internal/ledger"
	"riy-server/internal/logger"
	"riy-server/internal/waste"
)

type State string

const (
	Idle           State = "idle"
	Submitted      State = "submitted"
	Classifying    State = "classifying"
	RewardComputed State = "reward_computed"
	Persisted      State = "persisted"
	Completed      State = "completed"
	Failed         State = "failed"
)

type Ledger interface {
	ApplyReward(ctx context.Context, userID uint, r waste.Reward) (ledger.Totals, error)
}

type Request struct {
	Image  []byte
	UserID *uint // nil for anonymous scans
}

// Outcome is the single result of a scan.
//
// State is Completed or Failed. On Failed, Err says why; Result is still set
// when only the ledger write failed, with PointsRecorded false. Warning is
// set for degraded results.
type Outcome struct {
	State   State
	Trace   []State
	Result  *waste.ScanResult
	Err     error
	Warning error
}

func (o *Outcome) to(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

func (o *Outcome) fail(err error) Outcome {
	o.to(Failed)
	o.Err = err
	return *o
}

type Orchestrator struct {
	classifier ai.Classifier
	knowledge  *waste.KnowledgeBase
	policy     *waste.RewardPolicy
	ledger     Ledger
	timeout    time.Duration
}

func New(classifier ai.Classifier, knowledge *waste.KnowledgeBase, policy *waste.RewardPolicy, l Ledger, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		knowledge:  knowledge,
		policy:     policy,
		ledger:     l,
		timeout:    timeout,
	}
}

func (o *Orchestrator) Scan(ctx context.Context, req Request) Outcome {
	out := Outcome{State: Idle, Trace: []State{Idle}}
	if len(req.Image) == 0 {
		return out.fail(waste.ErrMissingImage)
	}
	out.to(Submitted)

	out.to(Classifying)
	cls, err := o.classify(ctx, req.Image)
	if err != nil {
		logger.Warning("classification failed: %v", err)
		return out.fail(err)
	}

	category := cls.Category
	degraded := !cls.Known || !category.Valid()
	if degraded {
		category = waste.Other
		out.Warning = fmt.Errorf("%w: %q", waste.ErrUnknownCategory, cls.Label)
		logger.Warning("classifier label %q is not a known category, using %s", cls.Label, category)
	}

	name := cls.Label
	if _, isCategory := waste.ParseCategory(name); isCategory {
		name = ""
	}
	knowledge := o.knowledge.Lookup(category)
	if degraded {
		knowledge = o.knowledge.Unrecognized()
	}
	reward := o.policy.Compute(category)
	res := waste.NewScanResult(name, knowledge, cls.Confidence, reward)
	res.Degraded = degraded
	out.to(RewardComputed)

	if req.UserID == nil {
		out.Result = res
		out.to(Completed)
		return out
	}

	totals, err := o.ledger.ApplyReward(ctx, *req.UserID, reward)
	if err != nil {
		if errors.Is(err, waste.ErrUserNotFound) {
			return out.fail(err)
		}
		if !errors.Is(err, waste.ErrPersistence) {
			err = fmt.Errorf("%w: %w", waste.ErrPersistence, err)
		}
		logger.Error("points for user %d not recorded: %v", *req.UserID, err)
		out.Result = res
		return out.fail(err)
	}
	out.to(Persisted)

	res.UserPoints = &totals.Points
	res.ItemsRecycled = &totals.ItemsRecycled
	res.PointsRecorded = true
	out.Result = res
	out.to(Completed)
	return out
}

func (o *Orchestrator) classify(ctx context.Context, image []byte) (ai.Classification, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	// The classifier may ignore ctx, so the deadline is enforced here too.
	type answer struct {
		cls ai.Classification
		err error
	}
	done := make(chan answer, 1)
	go func() {
		cls, err := o.classifier.Classify(ctx, image)
		done <- answer{cls, err}
	}()

	var cls ai.Classification
	var err error
	select {
	case a := <-done:
		cls, err = a.cls, a.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return cls, nil
	}
	if errors.Is(err, waste.ErrMissingImage) || errors.Is(err, waste.ErrClassificationFailed) {
		return ai.Classification{}, err
	}
	return ai.Classification{}, fmt.Errorf("%w: %w", waste.ErrClassificationFailed, err)
}
