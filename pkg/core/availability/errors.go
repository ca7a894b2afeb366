package availability

import "errors"

var (
	// ErrTransientFetch marks a failed read from the record store or aggregation function
	ErrTransientFetch = errors.New("transient fetch error")
	// ErrPersist marks a failed write; nothing is assumed committed
	ErrPersist = errors.New("failed to persist availability")
	// ErrVerificationTimeout marks writes that reported success but could not be confirmed
	ErrVerificationTimeout = errors.New("availability changes could not be confirmed")
	// ErrDateNotEditable marks a toggle on a date the caller may not change
	ErrDateNotEditable = errors.New("date is not editable")
)
