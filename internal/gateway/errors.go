package gateway

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies a backend failure so callers never have to read message text
type Kind int

const (
	KindRemote       Kind = iota // anything unclassified, shown verbatim
	KindNotFound                 // lookup returned no row
	KindInvalidState             // the packet or order state forbids the transition
	KindConflict                 // uniqueness violation: already processed
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	default:
		return "remote"
	}
}

// Unique constraint guarding one outward allocation per packet
const OutwardAllocationConstraint = "outward_allocations_packet_id_key"

// SQLSTATE codes the backend procedures raise
const (
	sqlStateUniqueViolation   = "23505"
	sqlStateNoDataFound       = "P0002"
	sqlStateInvalidParameter  = "22023"
	sqlStatePrerequisiteState = "55000"
	sqlStateRaiseException    = "P0001"
)

// Words a plain RAISE EXCEPTION uses when a packet or order state blocks the call
var stateWords = []string{
	"scrapped",
	"returned",
	"not allocated",
	"not available",
	"is closed",
	"invalid state",
}

// Error is a classified backend failure
type Error struct {
	Op         string // procedure or view that failed
	Kind       Kind
	Code       string // SQLSTATE when available
	Constraint string
	Message    string // human-readable text from the server
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error without an underlying cause
func NewError(op string, kind Kind, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// KindOf returns the Kind of err, KindRemote for unclassified errors
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindRemote
}

// IsKind reports whether err is a gateway error of the given kind
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Classify wraps a driver error into *Error.
// SQLSTATE wins; the legacy message convention is kept for errors that lost their code on the way.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}

	e := &Error{Op: op, Kind: KindRemote, Message: err.Error(), Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		e.Code = pgErr.Code
		e.Constraint = pgErr.ConstraintName
		e.Message = pgErr.Message
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			e.Kind = KindConflict
		case sqlStateNoDataFound:
			e.Kind = KindNotFound
		case sqlStateInvalidParameter, sqlStatePrerequisiteState:
			e.Kind = KindInvalidState
		case sqlStateRaiseException:
			if looksInvalidState(pgErr.Message) {
				e.Kind = KindInvalidState
			}
		}
	}

	if e.Kind == KindRemote {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			e.Kind = KindNotFound
		case looksDuplicate(err.Error()):
			e.Kind = KindConflict
		}
	}
	return e
}

func looksDuplicate(msg string) bool {
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, OutwardAllocationConstraint)
}

func looksInvalidState(msg string) bool {
	msg = strings.ToLower(msg)
	for _, w := range stateWords {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
