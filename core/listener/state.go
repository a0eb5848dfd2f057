package listener

// State is the lifecycle state of a listener.
type State int32

const (
	Stopped State = iota
	Listening
	Stopping
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}
