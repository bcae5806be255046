// README: Checkout conversation states and the allowed transition table.
package checkout

type State string

const (
	// StateNone is a session that has not started checkout yet.
	StateNone               State = ""
	StateChoosingDelivery   State = "choosing_delivery"
	StateEnteringAddress    State = "entering_address"
	StateConfirmingAddress  State = "confirming_address"
	StateEnteringApartment  State = "entering_apartment"
	StateChoosingPickupTime State = "choosing_pickup_time"
	StateEnteringPhone      State = "entering_phone"
	StateConfirmingOrder    State = "confirming_order"
)

// allowedTransitions represents both checkout paths as code. The courier path
// runs through address entry and confirmation; the pickup path runs through
// the ready-time slot. Terminal success and abandonment are modeled as session
// clearing, not as states.
var allowedTransitions = map[State][]State{
	StateNone:               {StateChoosingDelivery},
	StateChoosingDelivery:   {StateEnteringAddress, StateChoosingPickupTime},
	StateEnteringAddress:    {StateConfirmingAddress, StateEnteringApartment, StateChoosingDelivery},
	StateConfirmingAddress:  {StateEnteringApartment, StateEnteringAddress},
	StateEnteringApartment:  {StateEnteringPhone, StateChoosingDelivery},
	StateChoosingPickupTime: {StateEnteringPhone, StateChoosingDelivery},
	StateEnteringPhone:      {StateConfirmingOrder, StateEnteringApartment, StateChoosingDelivery},
	StateConfirmingOrder:    {StateEnteringPhone, StateChoosingDelivery},
}

func CanTransition(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
