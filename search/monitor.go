package search

import (
	"time"

	"github.com/poiesic/bookscan/core"
)

// SearchMonitor provides hooks to observe a search.
// Hooks are called synchronously from the goroutine running the search.
type SearchMonitor interface {
	Start(term string, books int)
	GapDetected(isbn string, previous, current core.ScannedLine)
	DirectHit(hit core.Hit)
	JoinedHit(hit core.Hit)
	BookScanned(isbn string, lines int)
	Finish(response *core.SearchResponse, elapsed time.Duration)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int) {}
func (n *noopMonitor) GapDetected(_ string, _, _ core.ScannedLine) {}
func (n *noopMonitor) DirectHit(_ core.Hit) {}
func (n *noopMonitor) JoinedHit(_ core.Hit) {}
func (n *noopMonitor) BookScanned(_ string, _ int) {}
func (n *noopMonitor) Finish(_ *core.SearchResponse, _ time.Duration) {}
