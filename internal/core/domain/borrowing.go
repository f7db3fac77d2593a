package domain

import "time"

// BorrowingStatus is the lifecycle state of a borrowing record
type BorrowingStatus string

const (
	StatusPending   BorrowingStatus = "pending"
	StatusDelivery  BorrowingStatus = "delivery"
	StatusReceived  BorrowingStatus = "received"
	StatusRejected  BorrowingStatus = "rejected"
	StatusReturned  BorrowingStatus = "returned"
	StatusRenewed   BorrowingStatus = "renewed"
	StatusCancelled BorrowingStatus = "cancelled"
	StatusOverdue   BorrowingStatus = "overdue"
	StatusLost      BorrowingStatus = "lost"
)

const (
	// MaxCopiesPerBorrowing is the most copies a single record may reserve
	MaxCopiesPerBorrowing = 2

	// LostGraceDays is how long an overdue record stays overdue before it is considered lost
	LostGraceDays = 10
)

// ParseBorrowingStatus validates s against the fixed enum (case-sensitive)
func ParseBorrowingStatus(s string) (BorrowingStatus, error) {
	st := BorrowingStatus(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid reports whether s is a known status
func (s BorrowingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDelivery, StatusReceived, StatusRejected, StatusReturned,
		StatusRenewed, StatusCancelled, StatusOverdue, StatusLost:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s BorrowingStatus) IsTerminal() bool {
	switch s {
	case StatusReturned, StatusRejected, StatusCancelled, StatusLost:
		return true
	}
	return false
}

// HoldsCopies reports whether copies of the book are out of the inventory in this state
func (s BorrowingStatus) HoldsCopies() bool {
	switch s {
	case StatusDelivery, StatusReceived, StatusRenewed, StatusOverdue:
		return true
	}
	return false
}

// InHand reports whether the borrower currently has the copies
func (s BorrowingStatus) InHand() bool {
	return s == StatusReceived || s == StatusRenewed || s == StatusOverdue
}

// Action is a state machine input
type Action string

const (
	ActionCreate    Action = "create"
	ActionAccept    Action = "accept"
	ActionReject    Action = "reject"
	ActionReceive   Action = "receive"
	ActionReturn    Action = "return"
	ActionRenew     Action = "renew"
	ActionCancel    Action = "cancel"
	ActionReconcile Action = "reconcile"
)

// Transition describes a legal move and its effect on Book.quantity
type Transition struct {
	From  BorrowingStatus
	To    BorrowingStatus
	Delta int // signed multiplier of record quantity applied to the book
}

var inHand = []BorrowingStatus{StatusReceived, StatusRenewed, StatusOverdue}

// sources lists the legal source states per action
var sources = map[Action][]BorrowingStatus{
	ActionAccept:  {StatusPending},
	ActionReject:  {StatusPending},
	ActionReceive: {StatusDelivery},
	ActionReturn:  inHand,
	ActionRenew:   inHand,
	ActionCancel:  {StatusPending, StatusReceived, StatusRenewed, StatusOverdue},
}

// NextTransition returns the transition performed by action from the current status
func NextTransition(current BorrowingStatus, action Action) (Transition, error) {
	legal := false
	for _, s := range sources[action] {
		if s == current {
			legal = true
			break
		}
	}
	if !legal {
		return Transition{}, ErrInvalidTransition
	}

	t := Transition{From: current}
	switch action {
	case ActionAccept:
		t.To, t.Delta = StatusDelivery, -1
	case ActionReject:
		t.To = StatusRejected
	case ActionReceive:
		t.To = StatusReceived
	case ActionReturn:
		t.To, t.Delta = StatusReturned, 1
	case ActionRenew:
		t.To = StatusRenewed
	case ActionCancel:
		t.To = StatusCancelled
		// pending records never took copies out of the inventory
		if current.HoldsCopies() {
			t.Delta = 1
		}
	}
	return t, nil
}

// ReconcileStatus derives the due-date driven status of a record at now.
// Only records the borrower holds are affected. The result is stable under repeated calls.
func ReconcileStatus(status BorrowingStatus, dueDate, now time.Time) BorrowingStatus {
	if !status.InHand() {
		return status
	}
	if now.After(dueDate.AddDate(0, 0, LostGraceDays)) {
		return StatusLost
	}
	if now.After(dueDate) {
		return StatusOverdue
	}
	return status
}
