package bt

// Status is the tri-state outcome of evaluating a node.
// The numeric values are the codes surfaced to hosts and recorded under node_<id>.
type Status int

const (
	StatusFailure Status = iota
	StatusSuccess
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusRunning:
		return "Running"
	default:
		return "Invalid"
	}
}

// Code returns the host-facing integer: 0=Failure, 1=Success, 2=Running.
func (s Status) Code() int { return int(s) }

func (s Status) float() float64 { return float64(s) }
