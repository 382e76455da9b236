package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"yagati/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// WatchEntry is one symbol/timeframe pair the scan cycle covers.
type WatchEntry struct {
	Symbol    string `yaml:"symbol"`
	Timeframe string `yaml:"timeframe"`
}

type watchlistFile struct {
	Symbols    []string `yaml:"symbols"`
	Timeframes []string `yaml:"timeframes"`
}

// WatchlistSnapshot is the read-only view handed to the cycle.
type WatchlistSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Entries  []WatchEntry
}

// Timeframes returns the distinct timeframes in the snapshot.
func (s WatchlistSnapshot) Timeframes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range s.Entries {
		if !seen[e.Timeframe] {
			seen[e.Timeframe] = true
			out = append(out, e.Timeframe)
		}
	}
	return out
}

// WatchlistListener is called with the new snapshot after a reload.
type WatchlistListener func(WatchlistSnapshot)

// Watchlist loads the symbol list from a YAML file and hot-reloads it on
// change. A bad edit keeps the previous snapshot in place.
type Watchlist struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  WatchlistSnapshot
	listeners []WatchlistListener
}

// NewWatchlist reads the file and starts watching it for updates.
func NewWatchlist(path string) (*Watchlist, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("watchlist requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read watchlist failed: %w", err)
	}
	w := &Watchlist{path: path, v: v}
	if err := w.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := w.reload(); err != nil {
			logger.Errorf("watchlist reload failed (%s): %v", evt.Name, err)
			return
		}
		w.notifyListeners()
	})
	v.WatchConfig()
	return w, nil
}

// Snapshot returns the current entries.
func (w *Watchlist) Snapshot() WatchlistSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := w.snapshot
	out.Entries = append([]WatchEntry(nil), w.snapshot.Entries...)
	return out
}

// OnChange registers a reload listener.
func (w *Watchlist) OnChange(fn WatchlistListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *Watchlist) reload() error {
	entries, err := readWatchlistFile(w.path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("watchlist %s has no symbol/timeframe pairs", w.path)
	}
	w.mu.Lock()
	w.snapshot = WatchlistSnapshot{
		Version:  w.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Entries:  entries,
	}
	w.mu.Unlock()
	logger.Infof("watchlist: loaded %d entries from %s", len(entries), w.path)
	return nil
}

func (w *Watchlist) notifyListeners() {
	w.mu.RLock()
	listeners := append([]WatchlistListener(nil), w.listeners...)
	snap := w.snapshot
	w.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// readWatchlistFile decodes the symbols x timeframes grid into the flat entry
// list the cycle iterates.
func readWatchlistFile(path string) ([]WatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file watchlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse watchlist failed: %w", err)
	}

	symbols := dedupeUpper(file.Symbols)
	timeframes := dedupeLower(file.Timeframes)
	entries := make([]WatchEntry, 0, len(symbols)*len(timeframes))
	for _, sym := range symbols {
		for _, tf := range timeframes {
			entries = append(entries, WatchEntry{Symbol: sym, Timeframe: tf})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Symbol != entries[j].Symbol {
			return entries[i].Symbol < entries[j].Symbol
		}
		return entries[i].Timeframe < entries[j].Timeframe
	})
	return entries, nil
}

func dedupeUpper(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func dedupeLower(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
