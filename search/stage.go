package search

import "fmt"

// Stage is a state of the retrieval pipeline. Stages advance linearly:
// Idle, Filtering, Scoring, Calibrating, Done.
type Stage int

const (
	StageIdle Stage = iota
	StageFiltering
	StageScoring
	StageCalibrating
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageFiltering:
		return "filtering"
	case StageScoring:
		return "scoring"
	case StageCalibrating:
		return "calibrating"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// stageMachine tracks one request's progress through the pipeline.
type stageMachine struct {
	current Stage
	monitor SearchMonitor
}

func newStageMachine(monitor SearchMonitor) *stageMachine {
	return &stageMachine{current: StageIdle, monitor: monitor}
}

// advance moves to next, which must directly follow the current stage.
func (m *stageMachine) advance(next Stage) error {
	if next != m.current+1 || next > StageDone {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.current, next)
	}
	prev := m.current
	m.current = next
	m.monitor.StageChanged(prev, next)
	return nil
}

func (m *stageMachine) stage() Stage {
	return m.current
}
