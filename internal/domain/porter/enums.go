package porter

// Lifecycle states, shared with the ambulance service. WAITING is initial;
// COMPLETED and CANCELLED are terminal.
const (
	StatusWaiting    = "WAITING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

var Statuses = []string{StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled}

var allowedTransitions = map[string][]string{
	StatusWaiting:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Urgency levels. The porter intake screens have always sent the ordinal
// index, so the order of this table is the wire contract.
const DefaultUrgency = "NORMAL"

var Urgencies = []string{
	"NORMAL",
	"URGENT",
	"EMERGENCY",
}

// Transport modes.
const DefaultTransportMode = "WHEELCHAIR"

var TransportModes = []string{
	"WALK",
	"WHEELCHAIR",
	"STRETCHER",
	"BED",
	"CART",
}
