package repositories

import "github.com/pkg/errors"

// Business-rule failures surfaced by the registration flow. The
// service layer maps these to structured results; anything else is a
// storage fault.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationClosed   = errors.New("registration is closed for this event")
	ErrEventFull            = errors.New("event is full")
	ErrDeadlinePassed       = errors.New("registration deadline has passed")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrRegistrationNotFound = errors.New("no active registration found")
)
