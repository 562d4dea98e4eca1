package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riy-server/internal/ai"
	"riy-server/internal/database/dbtest"
	"riy-server/internal/ledger"
	"riy-server/internal/mocks"
	"riy-server/internal/waste"
)

var image = []byte("\xff\xd8\xff\xe0 not really a jpeg")

func newOrchestrator(t *testing.T, c ai.Classifier, l Ledger) *Orchestrator {
	t.Helper()
	kb, policy, err := waste.Load("")
	require.NoError(t, err)
	return New(c, kb, policy, l, time.Second)
}

func uid(id uint) *uint { return &id }

func ideaTitles(res *waste.ScanResult) []string {
	titles := []string{}
	for _, idea := range res.DIYIdeas {
		titles = append(titles, idea.Title)
	}
	return titles
}

func TestScan_PlasticAnonymous(t *testing.T) {
	l := &mocks.MockLedger{}
	o := newOrchestrator(t, mocks.Returning(waste.Plastic), l)

	out := o.Scan(context.Background(), Request{Image: image})

	require.NoError(t, out.Err)
	assert.Equal(t, Completed, out.State)
	assert.Equal(t, []State{Idle, Submitted, Classifying, RewardComputed, Completed}, out.Trace)
	res := out.Result
	require.NotNil(t, res)
	assert.Equal(t, waste.Plastic, res.Category)
	assert.Equal(t, "Plastic bottle", res.Name)
	assert.True(t, res.IsDIYUsable)
	assert.Contains(t, res.DisposalInstructions, "plastic recycling bin")
	assert.Contains(t, ideaTitles(res), "Plant Pot")
	assert.Equal(t, 5, res.PointsAwarded)
	assert.Nil(t, res.UserPoints)
	assert.False(t, res.PointsRecorded)
	assert.Zero(t, l.Calls)
}

func TestScan_EWaste(t *testing.T) {
	o := newOrchestrator(t, mocks.Returning(waste.EWaste), &mocks.MockLedger{})

	out := o.Scan(context.Background(), Request{Image: image})

	require.Equal(t, Completed, out.State)
	res := out.Result
	assert.False(t, res.IsDIYUsable)
	assert.Empty(t, res.DIYIdeas)
	assert.Contains(t, res.DisposalInstructions, "collection center")
	assert.Equal(t, 5, res.PointsAwarded)
}

func TestScan_AuthenticatedUserIsCredited(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.CreateUser(t, db, "asha", 100, 20)
	store := ledger.New(db)
	o := newOrchestrator(t, mocks.Returning(waste.Paper), store)

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(u.ID)})

	require.NoError(t, out.Err)
	assert.Equal(t, []State{Idle, Submitted, Classifying, RewardComputed, Persisted, Completed}, out.Trace)
	res := out.Result
	require.NotNil(t, res.UserPoints)
	assert.Equal(t, 105, *res.UserPoints)
	require.NotNil(t, res.ItemsRecycled)
	assert.Equal(t, 21, *res.ItemsRecycled)
	assert.True(t, res.PointsRecorded)

	totals, err := store.Totals(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Totals{Points: 105, ItemsRecycled: 21}, totals)
}

func TestScan_AnonymousGlassTouchesNoLedger(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.CreateUser(t, db, "ben", 30, 3)
	l := &mocks.MockLedger{}
	o := newOrchestrator(t, mocks.Returning(waste.Glass), l)

	out := o.Scan(context.Background(), Request{Image: image})

	require.Equal(t, Completed, out.State)
	assert.NotEmpty(t, out.Result.DisposalInstructions)
	assert.Nil(t, out.Result.UserPoints)
	assert.Zero(t, l.Calls)

	totals, err := ledger.New(db).Totals(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Totals{Points: 30, ItemsRecycled: 3}, totals)
}

// canceledLedger runs the real ledger with a canceled context so the write
// fails inside the store.
type canceledLedger struct{ store *ledger.Store }

func (c canceledLedger) ApplyReward(ctx context.Context, userID uint, r waste.Reward) (ledger.Totals, error) {
	ctx, cancel := context.WithCancel(ctx)
	cancel()
	return c.store.ApplyReward(ctx, userID, r)
}

func TestScan_PersistenceFailureKeepsGuidance(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.CreateUser(t, db, "chen", 12, 2)
	store := ledger.New(db)
	o := newOrchestrator(t, mocks.Returning(waste.Plastic), canceledLedger{store})

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(u.ID)})

	assert.Equal(t, Failed, out.State)
	assert.ErrorIs(t, out.Err, waste.ErrPersistence)
	res := out.Result
	require.NotNil(t, res)
	assert.Equal(t, waste.Plastic, res.Category)
	assert.Contains(t, res.DisposalInstructions, "plastic recycling bin")
	assert.Contains(t, ideaTitles(res), "Plant Pot")
	assert.False(t, res.PointsRecorded)
	assert.Nil(t, res.UserPoints)
	assert.Nil(t, res.ItemsRecycled)

	totals, err := store.Totals(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Totals{Points: 12, ItemsRecycled: 2}, totals)
}

func TestScan_LedgerErrorWithoutSentinelIsPersistence(t *testing.T) {
	l := &mocks.MockLedger{ApplyRewardFunc: func(context.Context, uint, waste.Reward) (ledger.Totals, error) {
		return ledger.Totals{}, errors.New("disk full")
	}}
	o := newOrchestrator(t, mocks.Returning(waste.Metal), l)

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(1)})

	assert.Equal(t, Failed, out.State)
	assert.ErrorIs(t, out.Err, waste.ErrPersistence)
	require.NotNil(t, out.Result)
	assert.False(t, out.Result.PointsRecorded)
}

func TestScan_UserNotFound(t *testing.T) {
	store := ledger.New(dbtest.Open(t))
	o := newOrchestrator(t, mocks.Returning(waste.Paper), store)

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(404)})

	assert.Equal(t, Failed, out.State)
	assert.ErrorIs(t, out.Err, waste.ErrUserNotFound)
	assert.Nil(t, out.Result)
}

func TestScan_MissingImage(t *testing.T) {
	c := mocks.Returning(waste.Paper)
	o := newOrchestrator(t, c, &mocks.MockLedger{})

	out := o.Scan(context.Background(), Request{UserID: uid(1)})

	assert.Equal(t, Failed, out.State)
	assert.Equal(t, []State{Idle, Failed}, out.Trace)
	assert.ErrorIs(t, out.Err, waste.ErrMissingImage)
	assert.Nil(t, out.Result)
	assert.Zero(t, c.Calls)
}

func TestScan_ClassifierFailureLeavesLedgerAlone(t *testing.T) {
	l := &mocks.MockLedger{}
	c := &mocks.MockClassifier{ClassifyFunc: func(context.Context, []byte) (ai.Classification, error) {
		return ai.Classification{}, errors.New("connection refused")
	}}
	o := newOrchestrator(t, c, l)

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(1)})

	assert.Equal(t, Failed, out.State)
	assert.Equal(t, []State{Idle, Submitted, Classifying, Failed}, out.Trace)
	assert.ErrorIs(t, out.Err, waste.ErrClassificationFailed)
	assert.Contains(t, out.Err.Error(), "connection refused")
	assert.Nil(t, out.Result)
	assert.Zero(t, l.Calls)
}

func TestScan_ClassifierTimeout(t *testing.T) {
	l := &mocks.MockLedger{}
	release := make(chan struct{})
	defer close(release)
	c := &mocks.MockClassifier{ClassifyFunc: func(ctx context.Context, _ []byte) (ai.Classification, error) {
		<-release
		return ai.Classification{Category: waste.Glass, Known: true}, nil
	}}
	kb, policy, err := waste.Load("")
	require.NoError(t, err)
	o := New(c, kb, policy, l, 20*time.Millisecond)

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(1)})

	assert.Equal(t, Failed, out.State)
	assert.ErrorIs(t, out.Err, waste.ErrClassificationFailed)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Zero(t, l.Calls)
}

func TestScan_UnknownLabelIsDegraded(t *testing.T) {
	c := &mocks.MockClassifier{ClassifyFunc: func(context.Context, []byte) (ai.Classification, error) {
		conf := 0.42
		return ai.Classification{Label: "giraffe", Category: waste.Other, Confidence: &conf}, nil
	}}
	o := newOrchestrator(t, c, &mocks.MockLedger{})

	out := o.Scan(context.Background(), Request{Image: image, UserID: uid(7)})

	require.NoError(t, out.Err)
	assert.Equal(t, Completed, out.State)
	assert.ErrorIs(t, out.Warning, waste.ErrUnknownCategory)
	res := out.Result
	assert.True(t, res.Degraded)
	assert.Equal(t, "giraffe", res.Name)
	assert.Equal(t, waste.Other, res.Category)
	assert.Equal(t, waste.FallbackDisposal, res.DisposalInstructions)
	assert.Empty(t, res.DIYIdeas)
	assert.Equal(t, 5, res.PointsAwarded)
	assert.True(t, res.PointsRecorded)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.42, *res.Confidence, 1e-9)
}

func TestScan_CategoryOutsideClosedSetIsDegraded(t *testing.T) {
	c := &mocks.MockClassifier{ClassifyFunc: func(context.Context, []byte) (ai.Classification, error) {
		return ai.Classification{Label: "styrofoam", Category: waste.Category("Styrofoam"), Known: true}, nil
	}}
	o := newOrchestrator(t, c, &mocks.MockLedger{})

	out := o.Scan(context.Background(), Request{Image: image})

	require.Equal(t, Completed, out.State)
	assert.True(t, out.Result.Degraded)
	assert.Equal(t, waste.Other, out.Result.Category)
}

const customOther = `
categories:
  Biodegradable: {disposal: compost it}
  Plastic: {disposal: plastic bin}
  Glass: {disposal: glass bin}
  Metal: {disposal: metal bin}
  Paper: {disposal: paper bin}
  E-Waste: {disposal: collection center}
  Hazardous: {disposal: hazardous center}
  Other:
    item_name: Mystery object
    disposal: Drop at the community swap shelf
    diy_ideas:
      - {title: Art Collage, description: Glue it to a board., difficulty: Easy}
`

func TestScan_DegradedIgnoresConfiguredOther(t *testing.T) {
	kb, policy, err := waste.Parse([]byte(customOther))
	require.NoError(t, err)
	c := &mocks.MockClassifier{ClassifyFunc: func(context.Context, []byte) (ai.Classification, error) {
		return ai.Classification{Label: "giraffe", Category: waste.Other}, nil
	}}
	o := New(c, kb, policy, &mocks.MockLedger{}, time.Second)

	out := o.Scan(context.Background(), Request{Image: image})

	require.Equal(t, Completed, out.State)
	res := out.Result
	assert.True(t, res.Degraded)
	assert.Equal(t, "giraffe", res.Name)
	assert.Equal(t, waste.FallbackDisposal, res.DisposalInstructions)
	assert.NotNil(t, res.DIYIdeas)
	assert.Empty(t, res.DIYIdeas)
	assert.False(t, res.IsDIYUsable)

	// A classifier that recognizes Other still gets the configured guidance.
	o = New(mocks.Returning(waste.Other), kb, policy, &mocks.MockLedger{}, time.Second)
	out = o.Scan(context.Background(), Request{Image: image})
	require.Equal(t, Completed, out.State)
	assert.False(t, out.Result.Degraded)
	assert.Equal(t, "Drop at the community swap shelf", out.Result.DisposalInstructions)
	assert.Equal(t, []string{"Art Collage"}, ideaTitles(out.Result))
}
