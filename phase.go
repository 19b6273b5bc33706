package pageload

// Phase is a step of the page-load sequence. Phases only move forward.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseEager
	PhaseLazy
	PhaseRemediation
	PhaseDelayed
	PhaseDone
)

var phaseNames = [...]string{
	PhaseInitial:     "initial",
	PhaseEager:       "eager",
	PhaseLazy:        "lazy",
	PhaseRemediation: "remediation",
	PhaseDelayed:     "delayed",
	PhaseDone:        "done",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
