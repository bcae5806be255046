package checkout

import "testing"

func TestCanTransition(t *testing.T) {
	valid := []struct{ from, to State }{
		{StateNone, StateChoosingDelivery},
		{StateChoosingDelivery, StateEnteringAddress},
		{StateChoosingDelivery, StateChoosingPickupTime},
		{StateEnteringAddress, StateConfirmingAddress},
		{StateEnteringAddress, StateEnteringApartment},
		{StateEnteringAddress, StateChoosingDelivery},
		{StateConfirmingAddress, StateEnteringApartment},
		{StateConfirmingAddress, StateEnteringAddress},
		{StateEnteringApartment, StateEnteringPhone},
		{StateEnteringApartment, StateChoosingDelivery},
		{StateChoosingPickupTime, StateEnteringPhone},
		{StateChoosingPickupTime, StateChoosingDelivery},
		{StateEnteringPhone, StateConfirmingOrder},
		{StateEnteringPhone, StateEnteringApartment},
		{StateEnteringPhone, StateChoosingDelivery},
		{StateConfirmingOrder, StateEnteringPhone},
		{StateConfirmingOrder, StateChoosingDelivery},
	}
	for _, tc := range valid {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%q, %q) = false, want true", tc.from, tc.to)
		}
	}

	invalid := []struct{ from, to State }{
		{StateNone, StateConfirmingOrder},
		{StateChoosingDelivery, StateConfirmingOrder},
		{StateChoosingDelivery, StateEnteringPhone},
		{StateEnteringAddress, StateConfirmingOrder},
		{StateConfirmingAddress, StateConfirmingOrder},
		{StateChoosingPickupTime, StateEnteringAddress},
		{StateEnteringPhone, StateEnteringPhone},
		{StateConfirmingOrder, StateConfirmingOrder},
		{StateConfirmingOrder, StateNone},
	}
	for _, tc := range invalid {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%q, %q) = true, want false", tc.from, tc.to)
		}
	}
}

func TestAdvanceRefusesIllegalMove(t *testing.T) {
	s := &Session{State: StateChoosingDelivery}
	s.advance(StateConfirmingOrder)
	if s.State != StateChoosingDelivery {
		t.Fatalf("illegal move must not change state, got %s", s.State)
	}
	s.advance(StateEnteringAddress)
	if s.State != StateEnteringAddress {
		t.Fatalf("legal move must change state, got %s", s.State)
	}
}
