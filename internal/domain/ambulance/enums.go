package ambulance

// Lifecycle states. WAITING is initial; COMPLETED and CANCELLED are
// terminal.
const (
	StatusWaiting    = "WAITING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// Statuses is the closed status enumeration in wire/ordinal order.
var Statuses = []string{StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled}

// allowedTransitions is the lifecycle graph. Re-applying the current status
// is always allowed and treated as a plain update, not a transition.
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

// Booking purposes. Legacy clients send the ordinal index; the order of
// this table is the wire contract and must not change.
const DefaultBookingPurpose = "APPOINTMENT"

var BookingPurposes = []string{
	"APPOINTMENT",
	"TRANSFER",
	"REFERRAL",
	"DISCHARGE",
	"EMERGENCY",
}

// Equipment tags a request may carry. Unknown tags on the wire are dropped.
var EquipmentTags = []string{
	"OXYGEN",
	"MONITOR",
	"VENTILATOR",
	"IV_PUMP",
	"STRETCHER",
	"WHEELCHAIR",
}

// Infection precaution levels.
const DefaultInfectionStatus = "NONE"

var InfectionStatuses = []string{
	"NONE",
	"CONTACT",
	"DROPLET",
	"AIRBORNE",
}
