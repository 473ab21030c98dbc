// Package allocation assigns a field professional to a newly created booking.
//
// The Allocator resolves the professionals covering the booking's service area, ranks them by
// open workload and probes them in that order. Each probe holds a per-professional lock while it
// checks the calendar and commits, so two concurrent bookings can never both take the same slot.
// Every run ends in exactly one of assigned, not_serviceable or no_professionals_available, or
// returns a *TransientError and leaves the booking pending for the caller to retry.
package allocation
