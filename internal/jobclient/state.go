package jobclient

// State はクライアントの状態を表します。
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Busy は新しいジョブを受け付けられない状態かどうかを返します。
func (s State) Busy() bool {
	return s == StateSubmitting || s == StatePolling
}

var transitions = map[State][]State{
	StateIdle:       {StateSubmitting},
	StateSubmitting: {StatePolling, StateFailed},
	StatePolling:    {StatePolling, StateDone},
	StateDone:       {StateSubmitting},
	StateFailed:     {StateSubmitting},
}

func canTransition(from, to State) bool {
	// 破棄時はどの状態からでも Idle に戻す
	if to == StateIdle {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
