package channel

// State is the lifecycle state of a channel instance.
//
//	Connecting -> Open -> Draining -> Closed
//
// A transport disconnect moves the channel to Closed from any state and
// discards undelivered messages. Closed is terminal: a new instance must
// be established and higher-level state reconciled by the caller.
type State int32

const (
	Connecting State = iota
	Open
	Draining
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Draining:
		return "draining"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
