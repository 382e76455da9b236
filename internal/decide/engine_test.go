package decide

import (
	"testing"

	"yagati/internal/detect"
	"yagati/internal/feature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullScoreSet() feature.Set {
	return feature.Set{
		Symbol:          "BTCUSDT",
		Timeframe:       "1h",
		LastClose:       50000,
		TrendStrength:   100,
		VolatilityRatio: 2.0,
		RewardRisk: feature.RewardRisk{
			Ratio:      2.5,
			Support:    49000,
			Resistance: 55000,
		},
	}
}

func candidate(setupType string, dir detect.Direction) detect.Candidate {
	return detect.Candidate{
		Symbol:     "BTCUSDT",
		Timeframe:  "1h",
		SetupType:  setupType,
		Confidence: detect.ConfidenceMedium,
		Direction:  dir,
		Context:    "test context",
	}
}

func TestDecideFullScore(t *testing.T) {
	e := NewEngine(DefaultScoring())
	d := e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fullScoreSet())

	assert.Equal(t, 100, d.Score)
	assert.Equal(t, StatusForming, d.Status)
	assert.Equal(t, detect.ConfidenceHigh, d.Confidence)
	assert.Contains(t, d.Justification, "trend_alignment+30")
	assert.Contains(t, d.Justification, "volatility_expansion+25")
	assert.Contains(t, d.Justification, "reward_risk+25")
	assert.Contains(t, d.Justification, "structure_clear+20")
	assert.Contains(t, d.Justification, "score 100/100")
}

func TestDecideAllOrNothingBuckets(t *testing.T) {
	e := NewEngine(DefaultScoring())

	// partial trend alignment earns nothing
	fs := fullScoreSet()
	fs.TrendStrength = 50
	d := e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fs)
	assert.Equal(t, 70, d.Score)

	// volatility ratio just under the gate earns nothing
	fs = fullScoreSet()
	fs.VolatilityRatio = 1.99
	d = e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fs)
	assert.Equal(t, 75, d.Score)

	// reward-risk below minimum earns nothing
	fs = fullScoreSet()
	fs.RewardRisk.Ratio = 1.9
	d = e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fs)
	assert.Equal(t, 75, d.Score)
}

func TestDecideStructureBucketExcludesVolExpansion(t *testing.T) {
	e := NewEngine(DefaultScoring())
	fs := fullScoreSet()

	structural := e.Decide(candidate(detect.SetupTrendAcceleration, detect.DirectionLong), fs)
	pureVol := e.Decide(candidate(detect.SetupVolatilityExpansion, detect.DirectionLong), fs)
	assert.Equal(t, structural.Score-20, pureVol.Score)
}

func TestDecideRejectBelowThreshold(t *testing.T) {
	e := NewEngine(DefaultScoring())
	fs := feature.Set{Symbol: "BTCUSDT", Timeframe: "1h", LastClose: 50000}

	d := e.Decide(candidate(detect.SetupVolatilityExpansion, detect.DirectionLong), fs)
	assert.Equal(t, 0, d.Score)
	assert.Equal(t, StatusReject, d.Status)
	assert.Equal(t, detect.ConfidenceLow, d.Confidence)
	assert.Equal(t, "volatility_expansion: score 0 below forming threshold 50", d.Justification)

	// structure alone (20) still rejects
	d = e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fs)
	assert.Equal(t, 20, d.Score)
	assert.Equal(t, StatusReject, d.Status)
}

func TestDecideFormingAtExactThreshold(t *testing.T) {
	e := NewEngine(DefaultScoring())
	fs := feature.Set{Symbol: "BTCUSDT", Timeframe: "1h", LastClose: 50000, TrendStrength: 100}

	// trend (30) + structure (20) = 50, the forming boundary
	d := e.Decide(candidate(detect.SetupCompressionExpansion, detect.DirectionLong), fs)
	assert.Equal(t, 50, d.Score)
	assert.Equal(t, StatusForming, d.Status)
	assert.Equal(t, detect.ConfidenceMedium, d.Confidence)
}

func TestProposalLevels(t *testing.T) {
	e := NewEngine(DefaultScoring())
	fs := fullScoreSet()

	long := e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionLong), fs)
	assert.Equal(t, detect.DirectionLong, long.Proposal.Direction)
	assert.InDelta(t, 50000.0, long.Proposal.Entry, 1e-9)
	assert.InDelta(t, 49000.0, long.Proposal.Stop, 1e-9)

	short := e.Decide(candidate(detect.SetupRangeBreakAttempt, detect.DirectionShort), fs)
	assert.InDelta(t, 55000.0, short.Proposal.Stop, 1e-9)
}

func TestDecideAllPreservesOrderAndDeterminism(t *testing.T) {
	e := NewEngine(DefaultScoring())
	fs := fullScoreSet()
	cands := []detect.Candidate{
		candidate(detect.SetupVolatilityExpansion, detect.DirectionLong),
		candidate(detect.SetupTrendAcceleration, detect.DirectionLong),
	}

	first := e.DecideAll(cands, fs)
	second := e.DecideAll(cands, fs)
	require.Len(t, first, 2)
	assert.Equal(t, detect.SetupVolatilityExpansion, first[0].SetupType)
	assert.Equal(t, detect.SetupTrendAcceleration, first[1].SetupType)
	assert.Equal(t, first, second)

	for _, d := range first {
		assert.GreaterOrEqual(t, d.Score, 0)
		assert.LessOrEqual(t, d.Score, 100)
	}
}
