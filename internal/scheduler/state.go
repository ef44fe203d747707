package scheduler

type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateTerminating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateTerminating:
		return "TERMINATING"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}
