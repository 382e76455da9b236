package decide

import (
	"fmt"
	"strings"

	"yagati/internal/detect"
	"yagati/internal/feature"
)

type Status string

const (
	StatusForming Status = "forming"
	StatusReject  Status = "reject"
)

// Scoring holds the point buckets and cutoffs. Each bucket is awarded in full
// or not at all, which keeps every score auditable from the justification.
type Scoring struct {
	TrendAlignment      int
	VolatilityExpansion int
	RewardRisk          int
	StructureClear      int

	MinFormingScore  int
	ConfidenceHigh   int
	ConfidenceMedium int

	VolExpansionRatio float64
	MinRewardRisk     float64
}

func DefaultScoring() Scoring {
	return Scoring{
		TrendAlignment:      30,
		VolatilityExpansion: 25,
		RewardRisk:          25,
		StructureClear:      20,
		MinFormingScore:     50,
		ConfidenceHigh:      75,
		ConfidenceMedium:    50,
		VolExpansionRatio:   2.0,
		MinRewardRisk:       2.0,
	}
}

// Proposal is the deterministic trade suggestion attached to a decision: entry
// at the last close, stop at the structural level on the losing side.
type Proposal struct {
	Direction detect.Direction `json:"direction"`
	Entry     float64          `json:"entry"`
	Stop      float64          `json:"stop"`
}

// Decision is the scored outcome for one setup candidate. One per candidate
// per cycle; rejects are kept and logged, they are evidence of reasoning.
type Decision struct {
	Symbol        string            `json:"symbol"`
	Timeframe     string            `json:"timeframe"`
	SetupType     string            `json:"setup_type"`
	Status        Status            `json:"status"`
	Score         int               `json:"score"`
	Confidence    detect.Confidence `json:"confidence"`
	Justification string            `json:"justification"`
	Proposal      Proposal          `json:"proposal"`

	Candidate detect.Candidate `json:"-"`
	Features  feature.Set      `json:"-"`
}

type Engine struct {
	sc Scoring
}

func NewEngine(sc Scoring) *Engine {
	return &Engine{sc: sc}
}

// Decide scores one candidate against its feature set. Pure function.
func (e *Engine) Decide(c detect.Candidate, fs feature.Set) Decision {
	score, fired := e.score(c, fs)
	status := StatusReject
	if score >= e.sc.MinFormingScore {
		status = StatusForming
	}
	d := Decision{
		Symbol:        c.Symbol,
		Timeframe:     c.Timeframe,
		SetupType:     c.SetupType,
		Status:        status,
		Score:         score,
		Confidence:    e.confidence(score),
		Justification: e.justify(c, score, status, fired),
		Proposal:      proposalFor(c, fs),
		Candidate:     c,
		Features:      fs,
	}
	return d
}

// DecideAll scores every candidate in order.
func (e *Engine) DecideAll(candidates []detect.Candidate, fs feature.Set) []Decision {
	out := make([]Decision, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, e.Decide(c, fs))
	}
	return out
}

type bucket struct {
	name   string
	points int
}

func (e *Engine) score(c detect.Candidate, fs feature.Set) (int, []bucket) {
	var fired []bucket
	score := 0
	award := func(name string, points int) {
		score += points
		fired = append(fired, bucket{name: name, points: points})
	}

	if fs.TrendStrength >= 100 {
		award("trend_alignment", e.sc.TrendAlignment)
	}
	if fs.VolatilityRatio >= e.sc.VolExpansionRatio {
		award("volatility_expansion", e.sc.VolatilityExpansion)
	}
	if fs.RewardRisk.Ratio >= e.sc.MinRewardRisk {
		award("reward_risk", e.sc.RewardRisk)
	}
	if c.SetupType != detect.SetupVolatilityExpansion {
		award("structure_clear", e.sc.StructureClear)
	}

	if score > 100 {
		score = 100
	}
	return score, fired
}

func (e *Engine) confidence(score int) detect.Confidence {
	switch {
	case score >= e.sc.ConfidenceHigh:
		return detect.ConfidenceHigh
	case score >= e.sc.ConfidenceMedium:
		return detect.ConfidenceMedium
	default:
		return detect.ConfidenceLow
	}
}

func (e *Engine) justify(c detect.Candidate, score int, status Status, fired []bucket) string {
	if status == StatusReject {
		return fmt.Sprintf("%s: score %d below forming threshold %d", c.SetupType, score, e.sc.MinFormingScore)
	}
	parts := make([]string, 0, len(fired))
	for _, b := range fired {
		parts = append(parts, fmt.Sprintf("%s+%d", b.name, b.points))
	}
	buckets := "none"
	if len(parts) > 0 {
		buckets = strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s: %s; buckets: %s; score %d/100", c.SetupType, c.Context, buckets, score)
}

func proposalFor(c detect.Candidate, fs feature.Set) Proposal {
	p := Proposal{Direction: c.Direction, Entry: fs.LastClose}
	if c.Direction == detect.DirectionShort {
		p.Stop = fs.RewardRisk.Resistance
	} else {
		p.Stop = fs.RewardRisk.Support
	}
	return p
}
