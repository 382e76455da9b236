package paper

import (
	"errors"
	"fmt"

	"yagati/internal/detect"

	"github.com/shopspring/decimal"
)

// ErrInvalidStop marks a zero-distance stop. The candidate is rejected, never
// sized into a position.
var ErrInvalidStop = errors.New("stop equals entry")

// Sizing is the output of the position sizer: risk-bounded size plus the stop
// and target levels under the fixed reward multiple.
type Sizing struct {
	Size       float64
	Stop       float64
	Target     float64
	RiskAmount float64
}

// ComputeSizing sizes a candidate so that a stop-out loses exactly
// equity × riskFraction. Target sits rewardMultiple stop-distances away from
// entry on the profitable side. Level math runs on decimals to keep the
// published prices exact.
func ComputeSizing(equity, riskFraction, entry, stop, rewardMultiple float64, dir detect.Direction) (Sizing, error) {
	if equity <= 0 || riskFraction <= 0 {
		return Sizing{}, fmt.Errorf("sizing requires positive equity and risk fraction (equity=%.2f fraction=%.4f)", equity, riskFraction)
	}
	if entry <= 0 || stop <= 0 {
		return Sizing{}, fmt.Errorf("sizing requires positive entry and stop (entry=%.4f stop=%.4f)", entry, stop)
	}
	if rewardMultiple <= 0 {
		return Sizing{}, fmt.Errorf("sizing requires positive reward multiple (got %.2f)", rewardMultiple)
	}

	entryDec := decimal.NewFromFloat(entry)
	stopDec := decimal.NewFromFloat(stop)
	dist := entryDec.Sub(stopDec).Abs()
	if dist.IsZero() {
		return Sizing{}, fmt.Errorf("%w: entry=%.4f", ErrInvalidStop, entry)
	}

	riskDec := decimal.NewFromFloat(equity).Mul(decimal.NewFromFloat(riskFraction))
	sizeDec := riskDec.Div(dist)

	reward := dist.Mul(decimal.NewFromFloat(rewardMultiple))
	var targetDec decimal.Decimal
	if dir == detect.DirectionShort {
		targetDec = entryDec.Sub(reward)
	} else {
		targetDec = entryDec.Add(reward)
	}
	if targetDec.Sign() <= 0 {
		return Sizing{}, fmt.Errorf("computed target is not positive (entry=%.4f stop=%.4f)", entry, stop)
	}

	return Sizing{
		Size:       decToFloat(sizeDec),
		Stop:       stop,
		Target:     decToFloat(targetDec),
		RiskAmount: decToFloat(riskDec),
	}, nil
}

// PnL computes realized profit for a closed trade: directional price difference
// times size, plus the percentage move relative to entry.
func PnL(entry, exit, size float64, dir detect.Direction) (pnl, pnlPercent float64) {
	entryDec := decimal.NewFromFloat(entry)
	exitDec := decimal.NewFromFloat(exit)
	var diff decimal.Decimal
	if dir == detect.DirectionShort {
		diff = entryDec.Sub(exitDec)
	} else {
		diff = exitDec.Sub(entryDec)
	}
	pnl = decToFloat(diff.Mul(decimal.NewFromFloat(size)))
	if entry > 0 {
		pnlPercent = decToFloat(diff.Div(entryDec).Mul(decimal.NewFromInt(100)))
	}
	return pnl, pnlPercent
}

func decToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
