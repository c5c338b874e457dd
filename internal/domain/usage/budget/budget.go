package budget

// Budget is a snapshot of the daily routing lookup quota.
type Budget struct {
	callsLimit     int64
	callsRemaining int64
	isExhausted    bool
	resetsAt       int64 // unix millis, converted to ISO 8601 at transport layer
}

// New creates a Budget snapshot. A zero limit means unlimited.
func New(limit, remaining int64, isExhausted bool, resetsAt int64) Budget {
	return Budget{
		callsLimit:     limit,
		callsRemaining: remaining,
		isExhausted:    isExhausted,
		resetsAt:       resetsAt,
	}
}

// CallsLimit returns the daily call cap.
func (b Budget) CallsLimit() int64 { return b.callsLimit }

// CallsRemaining returns calls left today.
func (b Budget) CallsRemaining() int64 { return b.callsRemaining }

// IsExhausted reports whether the quota is spent.
func (b Budget) IsExhausted() bool { return b.isExhausted }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
