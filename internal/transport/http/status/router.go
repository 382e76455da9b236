package status

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"yagati/internal/store"

	"github.com/gin-gonic/gin"
)

// RuntimeProvider exposes in-process state the store does not hold.
type RuntimeProvider interface {
	RuntimeStatus() RuntimeStatus
}

// PositionCloser force-exits the open paper position; implemented by the app
// so the close serializes with the scan cycle.
type PositionCloser interface {
	CloseOpenPosition(ctx context.Context) error
}

// RuntimeStatus is the /api/status payload.
type RuntimeStatus struct {
	Env           string    `json:"env"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CycleCount    int64     `json:"cycle_count"`
	LastCycleAt   time.Time `json:"last_cycle_at,omitempty"`
	WatchEntries  int       `json:"watch_entries"`
	PaperEnabled  bool      `json:"paper_enabled"`
}

// Router serves account, position, trade, setup and event queries off the
// store so it never touches cycle-owned state.
type Router struct {
	store  store.Store
	closer PositionCloser
}

func NewRouter(st store.Store, closer PositionCloser) *Router {
	return &Router{store: st, closer: closer}
}

func (r *Router) Register(group *gin.RouterGroup, runtime RuntimeProvider) {
	if group == nil {
		return
	}
	group.GET("/status", func(c *gin.Context) {
		if runtime == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "runtime status unavailable"})
			return
		}
		c.JSON(http.StatusOK, runtime.RuntimeStatus())
	})
	group.GET("/account", r.handleAccount)
	group.GET("/position", r.handlePosition)
	group.GET("/trades", r.handleTrades)
	group.GET("/setups", r.handleSetups)
	group.GET("/decisions", r.handleDecisions)
	if r.closer != nil {
		group.POST("/position/close", r.handlePositionClose)
	}
}

func (r *Router) handleAccount(c *gin.Context) {
	acct, err := r.store.Account(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not initialized"})
		return
	}
	winRate := 0.0
	if acct.TotalTrades > 0 {
		winRate = float64(acct.WinningTrades) / float64(acct.TotalTrades)
	}
	c.JSON(http.StatusOK, gin.H{
		"equity":          acct.Equity,
		"initial_capital": acct.InitialCapital,
		"total_return":    (acct.Equity - acct.InitialCapital) / acct.InitialCapital,
		"total_trades":    acct.TotalTrades,
		"winning_trades":  acct.WinningTrades,
		"losing_trades":   acct.LosingTrades,
		"win_rate":        winRate,
		"updated_at":      acct.UpdatedAt,
	})
}

func (r *Router) handlePosition(c *gin.Context) {
	open, err := r.store.OpenTrades(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(open) == 0 {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "position": open[0]})
}

func (r *Router) handleTrades(c *gin.Context) {
	trades, err := r.store.ClosedTrades(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (r *Router) handleSetups(c *gin.Context) {
	setups, err := r.store.FormingSetups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"setups": setups, "count": len(setups)})
}

func (r *Router) handleDecisions(c *gin.Context) {
	events, err := r.store.RecentEvents(c.Request.Context(), queryLimit(c, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (r *Router) handlePositionClose(c *gin.Context) {
	if err := r.closer.CloseOpenPosition(c.Request.Context()); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func queryLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
