package model

// ErrorKind groups domain errors by how a caller should react to them.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindPolicy
	KindContention
	KindNotFound
	KindOwnership
	KindConflict
)

// Error is a domain error with a stable, machine-readable code.
type Error struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidReservationPeriod = &Error{Code: "INVALID_RESERVATION_PERIOD", Kind: KindValidation, Message: "reservation period must be 7, 14 or 21 days"}
	ErrMissingID                = &Error{Code: "MISSING_ID", Kind: KindValidation, Message: "id is required"}
	ErrInvalidTotalCopies       = &Error{Code: "INVALID_TOTAL_COPIES", Kind: KindValidation, Message: "total copies must be at least 1"}

	ErrUserBlacklisted           = &Error{Code: "USER_BLACKLISTED", Kind: KindPolicy, Message: "user is blacklisted"}
	ErrTooManyActiveReservations = &Error{Code: "TOO_MANY_ACTIVE_RESERVATIONS", Kind: KindPolicy, Message: "active reservation limit reached"}
	ErrRenewalLimitReached       = &Error{Code: "RENEWAL_LIMIT_REACHED", Kind: KindPolicy, Message: "renewal limit reached"}

	ErrNoCopiesAvailable = &Error{Code: "NO_COPIES_AVAILABLE", Kind: KindContention, Message: "no copies available"}

	ErrBookNotFound        = &Error{Code: "BOOK_NOT_FOUND", Kind: KindNotFound, Message: "book not found"}
	ErrReservationNotFound = &Error{Code: "RESERVATION_NOT_FOUND", Kind: KindNotFound, Message: "reservation not found"}

	ErrNotOwner = &Error{Code: "NOT_OWNER", Kind: KindOwnership, Message: "reservation belongs to another user"}

	ErrNotActive = &Error{Code: "NOT_ACTIVE", Kind: KindConflict, Message: "reservation is not active"}
)
