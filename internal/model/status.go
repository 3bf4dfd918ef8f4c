package model

import "errors"

// Status is the approval status of a customer request. The empty string is a
// valid status: it marks an unsubmitted draft, matching what list screens and
// the print form expect.
type Status string

const (
	StatusDraft         Status = ""
	StatusPending       Status = "PENDING"
	StatusApproved      Status = "APPROVED"
	StatusReturnToMaker Status = "RETURN TO MAKER"
	StatusCancelled     Status = "CANCELLED"
)

// ErrInvalidTransition is returned when a workflow operation would move a
// request between two statuses that are not an allowed pair.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions is the closed set of allowed (from -> to) status pairs.
// APPROVED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusDraft:         {StatusPending},
	StatusPending:       {StatusApproved, StatusCancelled, StatusReturnToMaker},
	StatusReturnToMaker: {StatusPending},
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusReturnToMaker, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// CanTransition reports whether moving from -> to is an allowed workflow step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates the (from, to) pair and returns the new status, or
// ErrInvalidTransition if the pair is not in the allowed set.
func Transition(from, to Status) (Status, error) {
	if !from.Valid() || !to.Valid() {
		return from, ErrInvalidTransition
	}
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition
	}
	return to, nil
}
