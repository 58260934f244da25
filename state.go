package bond

// State is the health of a Source.
type State int32

const (
	// StateLoading means no payload has been processed yet.
	StateLoading State = iota
	// StateHealthy means the last payload reached the target Dynamic.
	StateHealthy
	// StateDegraded means the last payload failed after an earlier one was
	// applied. The Dynamic keeps the last good value.
	StateDegraded
	// StateEmpty means every payload so far has failed. The Dynamic still
	// holds its initial value and the Source keeps watching.
	StateEmpty
)

var stateNames = [...]string{
	StateLoading:  "loading",
	StateHealthy:  "healthy",
	StateDegraded: "degraded",
	StateEmpty:    "empty",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
