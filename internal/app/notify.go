package app

import (
	"fmt"
	"time"

	"yagati/internal/decide"
	"yagati/internal/gateway/notifier"
	"yagati/internal/logger"
	"yagati/internal/paper"
)

// Notifications are fire-and-forget: a Telegram outage must never delay or
// fail a cycle.
func (a *App) push(msg notifier.Message) {
	text := msg.RenderMarkdown()
	go func() {
		if err := a.notify.SendText(text); err != nil {
			logger.Warnf("notify failed: %v", err)
		}
	}()
}

func (a *App) sendTradeOpenedNote(pos paper.Position) {
	a.push(notifier.Message{
		Icon:  "\U0001F4C8",
		Title: fmt.Sprintf("Paper trade opened: %s %s", pos.Symbol, pos.Direction),
		Sections: []notifier.Section{{
			Title: "Position",
			Lines: []string{
				fmt.Sprintf("entry %.4f size %.6f", pos.EntryPrice, pos.Size),
				fmt.Sprintf("stop %.4f target %.4f", pos.StopPrice, pos.TargetPrice),
				fmt.Sprintf("risk %.2f (equity %.2f)", pos.RiskAmount, pos.EquityAtOpen),
				fmt.Sprintf("setup %s", pos.SetupID),
			},
		}},
		Timestamp: time.Now().UTC(),
	})
}

func (a *App) sendTradeClosedNote(st paper.State) {
	a.push(notifier.Message{
		Icon:  "\U0001F4B0",
		Title: "Paper trade closed",
		Sections: []notifier.Section{{
			Title: "Account",
			Lines: []string{
				fmt.Sprintf("equity %.2f", st.Account.Equity),
				fmt.Sprintf("trades %d (W%d/L%d)", st.Account.TotalTrades,
					st.Account.WinningTrades, st.Account.LosingTrades),
			},
		}},
		Timestamp: time.Now().UTC(),
	})
}

func (a *App) sendSetupNote(decisions []decide.Decision, created, updated int) {
	var lines []string
	for _, d := range decisions {
		if d.Status != decide.StatusForming {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s score=%d conf=%s",
			d.Symbol, d.Timeframe, d.SetupType, d.Score, d.Confidence))
		if len(lines) >= 10 {
			lines = append(lines, "...")
			break
		}
	}
	a.push(notifier.Message{
		Icon:      "\U0001F50D",
		Title:     fmt.Sprintf("Setups forming (%d new, %d updated)", created, updated),
		Sections:  []notifier.Section{{Title: "Forming", Lines: lines}},
		Timestamp: time.Now().UTC(),
	})
}
