package pipeline

// State tracks where the orchestrator is in the batch lifecycle. The
// per-item states cycle for every candidate; Selecting happens once before
// the loop.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateExtracting
	StateSynthesizing
	StateApplying
	StateReclaiming
	StateDone
	StateAborted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateExtracting:
		return "extracting"
	case StateSynthesizing:
		return "synthesizing"
	case StateApplying:
		return "applying"
	case StateReclaiming:
		return "reclaiming"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}
