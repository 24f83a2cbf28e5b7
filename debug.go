package rowan

import (
	"fmt"
	"os"
	"time"
)

// debugEnabled mirrors the most recently set Scene debug flag so helpers
// without a Scene pointer can check it cheaply. Only valid with a single
// Scene; multiple Scenes with differing debug modes will reflect whichever
// called SetDebugMode last.
var debugEnabled bool

// warnf reports a consistency problem to stderr. These are logged
// unconditionally: they indicate index desync that the caller should see
// even in release builds.
func warnf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[rowan] warning: "+format+"\n", args...)
}

// frameStats holds per-frame traversal and draw metrics.
// Only populated when the scene's debug mode is on.
type frameStats struct {
	submitTime   time.Duration
	visitedItems int
	culledItems  int
	drawCalls    int
	fullScans    int // layers that fell back to full z-bucket iteration
}

// logStats prints per-frame metrics to stderr.
func logStats(stats frameStats) {
	_, _ = fmt.Fprintf(os.Stderr,
		"[rowan] frame: %v | visited: %d | culled: %d | draws: %d | full scans: %d\n",
		stats.submitTime, stats.visitedItems, stats.culledItems,
		stats.drawCalls, stats.fullScans)
}
