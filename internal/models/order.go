package models

import "time"

type OrderState string

const (
	OrderStateNew            OrderState = "new"
	OrderStatePendingPayment OrderState = "pending_payment"
	OrderStateProcessing     OrderState = "processing"
	OrderStateComplete       OrderState = "complete"
	OrderStateCanceled       OrderState = "canceled"
)

// Order is the platform's order entity as seen by the reconciler. The
// reconciler mutates it in place; persistence and lifecycle stay with the
// order subsystem.
type Order struct {
	EntityID        int64      `db:"entity_id"`
	IncrementID     string     `db:"increment_id"`
	QuoteID         int64      `db:"quote_id"`
	State           OrderState `db:"state"`
	Status          string     `db:"status"`
	CancelRequested bool       `db:"cancel_requested"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`

	// History accumulates status comments; entries with Saved=false are
	// written out on the next repository save.
	History []StatusComment `db:"-"`
}

// StatusComment is one operator-visible line in the order's status history.
type StatusComment struct {
	Comment   string
	CreatedAt time.Time
	Saved     bool
}

// AddStatusHistoryComment appends an operator-visible comment. It is
// persisted together with the order on the next save.
func (o *Order) AddStatusHistoryComment(comment string) {
	o.History = append(o.History, StatusComment{
		Comment:   comment,
		CreatedAt: time.Now(),
	})
}

// FlagForCancellation marks the order as awaiting cancellation by the order
// management subsystem.
func (o *Order) FlagForCancellation() {
	o.CancelRequested = true
}
