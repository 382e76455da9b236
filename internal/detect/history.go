package detect

// VolHistory keeps a bounded per-(symbol, timeframe) record of past volatility
// observations for expansion and compression comparisons. It is owned by the
// cycle orchestrator and passed into Scan explicitly.
type VolHistory struct {
	size int
	vols map[string][]float64
}

func NewVolHistory(size int) *VolHistory {
	if size <= 0 {
		size = 8
	}
	return &VolHistory{size: size, vols: make(map[string][]float64)}
}

// Values returns the recorded observations for the key, oldest first. The
// returned slice must not be mutated by callers.
func (h *VolHistory) Values(symbol, timeframe string) []float64 {
	return h.vols[histKey(symbol, timeframe)]
}

// Observe appends a volatility reading after the scan so the current cycle
// never compares a value against itself.
func (h *VolHistory) Observe(symbol, timeframe string, vol float64) {
	key := histKey(symbol, timeframe)
	ring := append(h.vols[key], vol)
	if len(ring) > h.size {
		ring = ring[len(ring)-h.size:]
	}
	h.vols[key] = ring
}

func histKey(symbol, timeframe string) string {
	return symbol + "|" + timeframe
}
