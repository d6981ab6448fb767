package search

import (
	"github.com/poiesic/filehawk/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query *core.QueryContext)
	StageChanged(from, to Stage)
	AfterFiltering(candidates []Candidate)
	AfterScoring(scores []FileScore)
	FileFailed(err *FileError)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.QueryContext)   {}
func (n *noopMonitor) StageChanged(_, _ Stage)      {}
func (n *noopMonitor) AfterFiltering(_ []Candidate) {}
func (n *noopMonitor) AfterScoring(_ []FileScore)   {}
func (n *noopMonitor) FileFailed(_ *FileError)      {}
func (n *noopMonitor) Finish(_ []core.RankedResult) {}
