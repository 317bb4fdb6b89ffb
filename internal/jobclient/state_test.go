package jobclient

import "testing"

func TestStateTransitions(t *testing.T) {
	allowed := [][2]State{
		{StateIdle, StateSubmitting},
		{StateSubmitting, StatePolling},
		{StateSubmitting, StateFailed},
		{StatePolling, StatePolling},
		{StatePolling, StateDone},
		{StateDone, StateSubmitting},
		{StateFailed, StateSubmitting},
		{StatePolling, StateIdle},
	}
	for _, tr := range allowed {
		if !canTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s must be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]State{
		{StateIdle, StatePolling},
		{StateIdle, StateDone},
		{StatePolling, StateSubmitting},
		{StateDone, StatePolling},
		{StateFailed, StatePolling},
	}
	for _, tr := range denied {
		if canTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s must be rejected", tr[0], tr[1])
		}
	}
}

func TestStateBusy(t *testing.T) {
	for state, want := range map[State]bool{
		StateIdle:       false,
		StateSubmitting: true,
		StatePolling:    true,
		StateDone:       false,
		StateFailed:     false,
	} {
		if state.Busy() != want {
			t.Fatalf("%s.Busy() = %v, want %v", state, state.Busy(), want)
		}
	}
}
