package orders

type Status string

const (
	StatusChattingRequired      Status = "chatting_required"
	StatusConsultationRequired  Status = "consultation_required"
	StatusOnHold                Status = "on_hold"
	StatusConsultationCompleted Status = "consultation_completed"
	StatusShippingOnHold        Status = "shipping_on_hold"
	StatusShipped               Status = "shipped"
	StatusCancelled             Status = "cancelled"
)

// AllStatuses is the tab order of the order list.
var AllStatuses = []Status{
	StatusChattingRequired,
	StatusConsultationRequired,
	StatusOnHold,
	StatusConsultationCompleted,
	StatusShippingOnHold,
	StatusShipped,
	StatusCancelled,
}

func (s Status) Valid() bool {
	_, ok := navigation[s]
	return ok
}

// Navigation is what the detail view offers for the current status.
type Navigation struct {
	Prev  *Status  `json:"prev"`
	Next  *Status  `json:"next"`
	Extra []Status `json:"extra"`
}

func ptr(s Status) *Status { return &s }

var navigation = map[Status]Navigation{
	StatusChattingRequired: {
		Next:  ptr(StatusConsultationRequired),
		Extra: []Status{StatusConsultationCompleted},
	},
	StatusConsultationRequired: {
		Prev:  ptr(StatusChattingRequired),
		Next:  ptr(StatusConsultationCompleted),
		Extra: []Status{StatusOnHold, StatusShippingOnHold},
	},
	StatusOnHold: {
		Next:  ptr(StatusConsultationCompleted),
		Extra: []Status{StatusShippingOnHold},
	},
	StatusShippingOnHold: {
		Prev: ptr(StatusConsultationCompleted),
		Next: ptr(StatusShipped),
	},
	StatusConsultationCompleted: {
		Prev:  ptr(StatusConsultationRequired),
		Next:  ptr(StatusShipped),
		Extra: []Status{StatusShippingOnHold},
	},
	StatusShipped: {
		Prev: ptr(StatusConsultationCompleted),
	},
	StatusCancelled: {},
}

// validNext is derived from the navigation table so the buttons and the
// enforced graph cannot drift apart.
var validNext = func() map[Status]map[Status]bool {
	out := make(map[Status]map[Status]bool, len(navigation))
	for from, nav := range navigation {
		m := map[Status]bool{}
		if nav.Prev != nil {
			m[*nav.Prev] = true
		}
		if nav.Next != nil {
			m[*nav.Next] = true
		}
		for _, s := range nav.Extra {
			m[s] = true
		}
		out[from] = m
	}
	return out
}()

func NavigationFor(s Status) Navigation {
	nav := navigation[s]
	nav.Extra = append([]Status(nil), nav.Extra...)
	return nav
}

// CanTransition reports whether from -> to is a sanctioned workflow edge.
// Staying put is always allowed. Cancellation is not a workflow edge.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return validNext[from][to]
}

func isGuardedEdge(from, to Status) bool {
	return from == StatusConsultationRequired && to == StatusConsultationCompleted
}

// SourcesOf lists every status that may move to target, target itself included.
func SourcesOf(target Status) []Status {
	var out []Status
	for _, s := range AllStatuses {
		if CanTransition(s, target) {
			out = append(out, s)
		}
	}
	return out
}
