package model

// Booking lifecycle statuses. The allocator moves a booking out of pending into exactly one of
// assigned, not_serviceable or no_professionals_available.
const (
	BookingPending                  = "pending"
	BookingAssigned                 = "assigned"
	BookingConfirmed                = "confirmed"
	BookingCompleted                = "completed"
	BookingCancelled                = "cancelled"
	BookingNotServiceable           = "not_serviceable"
	BookingNoProfessionalsAvailable = "no_professionals_available"
)

const (
	AllocationAssigned  = "assigned"
	AllocationConfirmed = "confirmed"
	AllocationCompleted = "completed"
	AllocationCancelled = "cancelled"
	AllocationRejected  = "rejected"
)

// ActiveAllocationStatuses occupy the professional's calendar.
var ActiveAllocationStatuses = []string{AllocationAssigned, AllocationConfirmed}

// ClosedBookingStatuses never block a professional's calendar, whatever their allocation says.
var ClosedBookingStatuses = []string{BookingCancelled, BookingCompleted}

// IsBookingOwningAllocation reports whether an allocation in this status still owns its booking.
// At most one such allocation may exist per booking.
func IsBookingOwningAllocation(status string) bool {
	return status != AllocationCancelled && status != AllocationRejected
}

var allocationTransitions = map[string][]string{
	AllocationAssigned:  {AllocationConfirmed, AllocationRejected, AllocationCancelled},
	AllocationConfirmed: {AllocationCompleted, AllocationCancelled},
}

func CanTransitionAllocation(from, to string) bool {
	for _, next := range allocationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingStatusForAllocation returns the booking status mirrored from an allocation change.
func BookingStatusForAllocation(allocationStatus string) string {
	switch allocationStatus {
	case AllocationAssigned:
		return BookingAssigned
	case AllocationConfirmed:
		return BookingConfirmed
	case AllocationCompleted:
		return BookingCompleted
	case AllocationCancelled:
		return BookingCancelled
	default:
		return BookingPending
	}
}
