package bond

import "testing"

func TestState_String(t *testing.T) {
	for state, want := range map[State]string{
		StateLoading:  "loading",
		StateHealthy:  "healthy",
		StateDegraded: "degraded",
		StateEmpty:    "empty",
		State(-1):     "unknown",
		State(42):     "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
