package booking

import "testing"

func TestCanTransitionTo(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BookingStatusPending:    {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed:  {BookingStatusInProgress, BookingStatusCancelled},
		BookingStatusInProgress: {BookingStatusCompleted},
		BookingStatusCompleted:  {},
		BookingStatusCancelled:  {},
	}

	for _, from := range GetAllBookingStatuses() {
		for _, to := range GetAllBookingStatuses() {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	if !BookingStatusPending.CanBeCancelled() || !BookingStatusConfirmed.CanBeCancelled() {
		t.Error("pending and confirmed must be cancellable")
	}
	if BookingStatusInProgress.CanBeCancelled() || BookingStatusCompleted.CanBeCancelled() {
		t.Error("in_progress and completed must not be cancellable")
	}

	if !BookingStatusCompleted.IsTerminal() || !BookingStatusCancelled.IsTerminal() {
		t.Error("completed and cancelled are terminal")
	}
	if BookingStatusConfirmed.IsTerminal() {
		t.Error("confirmed is not terminal")
	}

	if BookingStatusCancelled.CountsTowardCapacity() {
		t.Error("cancelled bookings do not hold capacity")
	}
	if !BookingStatusPending.CountsTowardCapacity() {
		t.Error("pending bookings hold capacity")
	}

	if BookingStatus("unknown").IsValid() {
		t.Error("unknown status validated")
	}
	if PaymentStatus("unknown").IsValid() {
		t.Error("unknown payment status validated")
	}
}
