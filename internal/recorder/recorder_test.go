package recorder

import (
	"context"
	"errors"
	"testing"

	"yagati/internal/decide"
	"yagati/internal/detect"
	"yagati/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSetupStore struct {
	forming []store.SetupRecord
	creates []store.SetupRecord
	updates []store.SetupRecord

	failCreate bool
	failUpdate bool
}

func (f *fakeSetupStore) FormingSetups(context.Context) ([]store.SetupRecord, error) {
	return append([]store.SetupRecord(nil), f.forming...), nil
}

func (f *fakeSetupStore) CreateSetup(_ context.Context, rec store.SetupRecord) error {
	if f.failCreate {
		return errors.New("locked")
	}
	f.creates = append(f.creates, rec)
	return nil
}

func (f *fakeSetupStore) UpdateSetup(_ context.Context, rec store.SetupRecord) error {
	if f.failUpdate {
		return errors.New("locked")
	}
	f.updates = append(f.updates, rec)
	return nil
}

func forming(symbol, setupType string, conf detect.Confidence) decide.Decision {
	return decide.Decision{
		Symbol:     symbol,
		Timeframe:  "1h",
		SetupType:  setupType,
		Status:     decide.StatusForming,
		Score:      75,
		Confidence: conf,
	}
}

func TestApplyCreatesUnknownSetups(t *testing.T) {
	fs := &fakeSetupStore{}
	r := New(fs)
	r.newID = func() string { return "fixed-id" }

	st := r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium),
		forming("ETHUSDT", detect.SetupTrendAcceleration, detect.ConfidenceHigh),
	})

	assert.Equal(t, Stats{Created: 2}, st)
	require.Len(t, fs.creates, 2)
	assert.Equal(t, "fixed-id", fs.creates[0].ID)
	assert.Equal(t, "BTCUSDT", fs.creates[0].Symbol)
	assert.Equal(t, "forming", fs.creates[0].Status)
	assert.NotEmpty(t, fs.creates[0].FeatureSnapshot)
}

func TestApplySkipsUnchangedConfidence(t *testing.T) {
	fs := &fakeSetupStore{}
	r := New(fs)

	d := forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium)
	r.Apply(context.Background(), []decide.Decision{d})
	st := r.Apply(context.Background(), []decide.Decision{d})

	assert.Equal(t, Stats{Skipped: 1}, st)
	assert.Len(t, fs.creates, 1)
	assert.Empty(t, fs.updates)
}

func TestApplyUpdatesOnConfidenceChange(t *testing.T) {
	fs := &fakeSetupStore{}
	r := New(fs)

	r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium),
	})
	st := r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceHigh),
	})

	assert.Equal(t, Stats{Updated: 1}, st)
	require.Len(t, fs.updates, 1)
	assert.Equal(t, string(detect.ConfidenceHigh), fs.updates[0].Confidence)

	// back at high again is a skip
	st = r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceHigh),
	})
	assert.Equal(t, Stats{Skipped: 1}, st)
}

func TestApplyIgnoresRejects(t *testing.T) {
	fs := &fakeSetupStore{}
	r := New(fs)

	d := forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium)
	d.Status = decide.StatusReject

	st := r.Apply(context.Background(), []decide.Decision{d})
	assert.Equal(t, Stats{}, st)
	assert.Empty(t, fs.creates)
}

func TestApplyFailedCreateRetriesNextCycle(t *testing.T) {
	fs := &fakeSetupStore{failCreate: true}
	r := New(fs)

	d := forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium)
	st := r.Apply(context.Background(), []decide.Decision{d})
	assert.Equal(t, Stats{Failed: 1}, st)

	// cache untouched on failure, so the next pass creates
	fs.failCreate = false
	st = r.Apply(context.Background(), []decide.Decision{d})
	assert.Equal(t, Stats{Created: 1}, st)
}

func TestApplyIdentityIncludesTypeAndTimeframe(t *testing.T) {
	fs := &fakeSetupStore{}
	r := New(fs)

	a := forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium)
	b := forming("BTCUSDT", detect.SetupRangeBreakAttempt, detect.ConfidenceMedium)
	c := forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium)
	c.Timeframe = "4h"

	st := r.Apply(context.Background(), []decide.Decision{a, b, c})
	assert.Equal(t, Stats{Created: 3}, st)
}

func TestSeedPreventsRecreate(t *testing.T) {
	fs := &fakeSetupStore{forming: []store.SetupRecord{
		{Symbol: "BTCUSDT", Timeframe: "1h", SetupType: detect.SetupVolatilityExpansion,
			Status: "forming", Confidence: string(detect.ConfidenceMedium)},
	}}
	r := New(fs)
	require.NoError(t, r.Seed(context.Background()))

	st := r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceMedium),
	})
	assert.Equal(t, Stats{Skipped: 1}, st)
	assert.Empty(t, fs.creates)

	// a confidence change against the seeded row is an update
	st = r.Apply(context.Background(), []decide.Decision{
		forming("BTCUSDT", detect.SetupVolatilityExpansion, detect.ConfidenceHigh),
	})
	assert.Equal(t, Stats{Updated: 1}, st)
}

func TestStatsString(t *testing.T) {
	s := Stats{Created: 1, Updated: 2, Skipped: 3, Failed: 4}
	assert.Equal(t, "created=1 updated=2 skipped=3 failed=4", s.String())
}
