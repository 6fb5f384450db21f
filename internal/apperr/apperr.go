// Package apperr defines the error values every clinic operation can return.
// Transports map an *Error to a status by its Kind and render its Code to clients.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindInvalid
	KindNotFound
	KindConflict
	KindPrecondition
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPrecondition:
		return "precondition"
	case KindInternal:
		return "internal"
	}
	return "unknown"
}

// Category groups kinds the way callers reason about them: auth failures,
// rejected requests, access denials and internal faults.
type Category string

const (
	CategoryAuth          Category = "auth"
	CategoryValidation    Category = "validation"
	CategoryAuthorization Category = "authorization"
	CategoryInternal      Category = "internal"
)

func (k Kind) Category() Category {
	switch k {
	case KindUnauthenticated:
		return CategoryAuth
	case KindForbidden:
		return CategoryAuthorization
	case KindInternal:
		return CategoryInternal
	}
	return CategoryValidation
}

type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Op and EntityID are only set on internal failures and never leave the process.
	Op       string
	EntityID int64
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s (id=%d): %v", e.Op, e.EntityID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, so that
// errors.Is(err, apperr.ErrSlotTaken) holds for copies carrying other messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

const (
	CodeMissingToken        = "MISSING_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeRoleMismatch        = "ROLE_MISMATCH"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeForbidden           = "FORBIDDEN"
	CodeDoctorNotFound      = "DOCTOR_NOT_FOUND"
	CodePatientNotFound     = "PATIENT_NOT_FOUND"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeAppointmentNotFound = "APPOINTMENT_NOT_FOUND"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeSlotTaken           = "SLOT_TAKEN"
	CodeSlotUnavailable     = "SLOT_UNAVAILABLE"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeStorageFailure      = "STORAGE_FAILURE"
)

var (
	ErrMissingToken   = &Error{Kind: KindUnauthenticated, Code: CodeMissingToken, Message: "missing token"}
	ErrExpired        = &Error{Kind: KindUnauthenticated, Code: CodeTokenExpired, Message: "token expired"}
	ErrMalformed      = &Error{Kind: KindUnauthenticated, Code: CodeInvalidToken, Message: "invalid token"}
	ErrRoleMismatch   = &Error{Kind: KindUnauthenticated, Code: CodeRoleMismatch, Message: "token role does not match"}
	ErrUnknownSubject = &Error{Kind: KindUnauthenticated, Code: CodeUserNotFound, Message: "token subject no longer exists"}
	ErrBadCredentials = &Error{Kind: KindUnauthenticated, Code: CodeInvalidCredentials, Message: "invalid credentials"}

	ErrForbidden = &Error{Kind: KindForbidden, Code: CodeForbidden, Message: "forbidden"}

	ErrDoctorNotFound      = &Error{Kind: KindInvalid, Code: CodeDoctorNotFound, Message: "doctor not found"}
	ErrPatientNotFound     = &Error{Kind: KindInvalid, Code: CodePatientNotFound, Message: "patient not found"}
	ErrAppointmentNotFound = &Error{Kind: KindNotFound, Code: CodeAppointmentNotFound, Message: "appointment not found"}
	ErrSlotTaken           = &Error{Kind: KindConflict, Code: CodeSlotTaken, Message: "time slot already booked"}
	ErrSlotUnavailable     = &Error{Kind: KindConflict, Code: CodeSlotUnavailable, Message: "time is not an offered slot"}
	ErrInvalidTransition   = &Error{Kind: KindPrecondition, Code: CodeInvalidTransition, Message: "appointment can no longer be changed"}

	// Comparison targets for the constructors below.
	ErrInvalidInput  = &Error{Kind: KindInvalid, Code: CodeValidationError, Message: "validation failed"}
	ErrNotFound      = &Error{Kind: KindNotFound, Code: CodeResourceNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Kind: KindConflict, Code: CodeAlreadyExists, Message: "already exists"}
	ErrStorage       = &Error{Kind: KindInternal, Code: CodeStorageFailure, Message: "internal error"}
)

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Code: CodeValidationError, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeResourceNotFound, Message: entity + " not found"}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. The message shown to clients stays generic.
func Storage(op string, entityID int64, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeStorageFailure, Message: "internal error", Op: op, EntityID: entityID, Err: err}
}

// From returns the *Error in err's chain. Anything else is an internal failure.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Code: CodeStorageFailure, Message: "internal error", Err: err}
}
