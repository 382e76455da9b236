package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"yagati/internal/decide"
	"yagati/internal/logger"
	"yagati/internal/store"

	"github.com/google/uuid"
)

// Stats summarizes one Apply pass.
type Stats struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d failed=%d", s.Created, s.Updated, s.Skipped, s.Failed)
}

// Recorder persists forming setups and suppresses duplicate writes. The cache
// is keyed by setup identity (symbol, timeframe, setup type) and holds the
// last confidence written; a repeat at the same confidence is a skip, a
// confidence change is an update. The cache is owned here and mutated only
// after the store write succeeds, so a failed write retries next cycle.
type Recorder struct {
	setups store.SetupStore

	seen  map[string]string
	nowFn func() time.Time
	newID func() string
}

func New(setups store.SetupStore) *Recorder {
	return &Recorder{
		setups: setups,
		seen:   make(map[string]string),
		nowFn:  func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Seed warms the dedup cache from rows already in the store so a restart does
// not re-create setups that are still forming.
func (r *Recorder) Seed(ctx context.Context) error {
	recs, err := r.setups.FormingSetups(ctx)
	if err != nil {
		return fmt.Errorf("seeding setup cache: %w", err)
	}
	for _, rec := range recs {
		r.seen[identityKey(rec.Symbol, rec.Timeframe, rec.SetupType)] = rec.Confidence
	}
	if len(r.seen) > 0 {
		logger.Infof("recorder: seeded %d forming setups from store", len(r.seen))
	}
	return nil
}

// Apply records every forming decision of the cycle, deduplicating against the
// cache. Reject decisions never reach the setups table.
func (r *Recorder) Apply(ctx context.Context, decisions []decide.Decision) Stats {
	var st Stats
	for _, d := range decisions {
		if d.Status != decide.StatusForming {
			continue
		}
		key := identityKey(d.Symbol, d.Timeframe, d.SetupType)
		conf := string(d.Confidence)
		last, known := r.seen[key]

		switch {
		case !known:
			rec := r.toRecord(d)
			rec.ID = r.newID()
			if err := r.setups.CreateSetup(ctx, rec); err != nil {
				logger.Errorf("recorder: create %s failed: %v", key, err)
				st.Failed++
				continue
			}
			r.seen[key] = conf
			st.Created++
		case last != conf:
			if err := r.setups.UpdateSetup(ctx, r.toRecord(d)); err != nil {
				logger.Errorf("recorder: update %s failed: %v", key, err)
				st.Failed++
				continue
			}
			r.seen[key] = conf
			st.Updated++
		default:
			st.Skipped++
		}
	}
	return st
}

func (r *Recorder) toRecord(d decide.Decision) store.SetupRecord {
	snapshot, err := json.Marshal(d.Features)
	if err != nil {
		snapshot = []byte("{}")
	}
	return store.SetupRecord{
		Symbol:          d.Symbol,
		Timeframe:       d.Timeframe,
		SetupType:       d.SetupType,
		Status:          string(d.Status),
		Confidence:      string(d.Confidence),
		Direction:       string(d.Proposal.Direction),
		Context:         d.Candidate.Context,
		Score:           d.Score,
		FeatureSnapshot: snapshot,
		DetectedAt:      r.nowFn(),
	}
}

func identityKey(symbol, timeframe, setupType string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "|" + timeframe + "|" + setupType
}
