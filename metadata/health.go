package metadata

// Component identifies one of the node's subsystems whose health is
// reported through the identity snapshot.
type Component int

const (
	Admin Component = iota
	Worker
	LogServer
	MetadataServer

	numComponents
)

func (c Component) String() string {
	switch c {
	case Admin:
		return "admin"
	case Worker:
		return "worker"
	case LogServer:
		return "log-server"
	case MetadataServer:
		return "metadata-server"
	default:
		return "unknown"
	}
}

// ComponentStatus is the health state of a component. Each status is
// mutated only by its owning subsystem and read by the identity snapshot.
type ComponentStatus int32

const (
	StatusUnknown ComponentStatus = iota
	StatusStarting
	StatusActive
	StatusShuttingDown
)

func (s ComponentStatus) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusActive:
		return "active"
	case StatusShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

func (s ComponentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SetStatus records the health state of a component. Only the subsystem
// owning the component may call this.
func (s *Store) SetStatus(c Component, status ComponentStatus) {
	s.statuses[c].Store(int32(status))
}

// Status returns the latest recorded health state of a component.
func (s *Store) Status(c Component) ComponentStatus {
	return ComponentStatus(s.statuses[c].Load())
}
