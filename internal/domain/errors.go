package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors for callers and for the HTTP layer
type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindAuthorization ErrorKind = "authorization"
	ErrorKindProtocol      ErrorKind = "protocol"
	ErrorKindRemote        ErrorKind = "remote"
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindInternal      ErrorKind = "internal"
)

var (
	// ErrPriceTooLow is returned when a listing price is below MIN_LISTING_PRICE
	ErrPriceTooLow = errors.New("price too low")

	// ErrInvalidTokenID is returned when a token id is outside the collection range
	ErrInvalidTokenID = errors.New("invalid token id")

	// ErrTokenNotMinted is returned when a token id has no owner
	ErrTokenNotMinted = errors.New("token not minted")

	// ErrNotListed is returned when a token has no active listing
	ErrNotListed = errors.New("token not listed")

	// ErrInsufficientPayment is returned when the paid amount is below the listed price
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrCreatorFeeBelowFloor is returned when the creator fee cannot cover the two payout transfer fees
	ErrCreatorFeeBelowFloor = errors.New("creator fee below transfer fee floor")

	// ErrAlreadyMinted is returned when minting a token id that already has an owner
	ErrAlreadyMinted = errors.New("token already minted")

	// ErrCapacityExceeded is returned when the collection reached its max supply
	ErrCapacityExceeded = errors.New("max supply reached")

	// ErrOutOfBounds is returned when minting a token id outside 1..max supply
	ErrOutOfBounds = errors.New("token id out of bounds")

	// ErrIndexOutOfRange is returned when reading an audit record that does not exist
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnauthorized is returned when the caller is not the trusted notifier
	ErrUnauthorized = errors.New("unauthorized caller")

	// ErrNotOwner is returned when the caller does not own the token
	ErrNotOwner = errors.New("caller is not the token owner")

	// ErrTransactingDisabled is returned when trading is switched off
	ErrTransactingDisabled = errors.New("transacting disabled")

	// ErrAlreadyProcessed is returned when a block height was already consumed
	ErrAlreadyProcessed = errors.New("block already processed")

	// ErrRecipientMismatch is returned when a transfer was not sent to this service
	ErrRecipientMismatch = errors.New("transfer recipient does not match service account")

	// ErrInvalidTransferKind is returned for mint and burn transfers
	ErrInvalidTransferKind = errors.New("transfer must be of kind send")

	// ErrSenderMismatch is returned when the transfer sender is not the caller
	ErrSenderMismatch = errors.New("transfer sender does not match caller")

	// ErrUnsettledPurchase is returned when the target accepted a purchase with a response no payout can be computed from
	ErrUnsettledPurchase = errors.New("accepted purchase cannot be settled")

	// ErrNotConfigured is returned when a required remote address is missing
	ErrNotConfigured = errors.New("not configured")

	// ErrInvalidPrincipal is returned when a principal is empty
	ErrInvalidPrincipal = errors.New("invalid principal")

	// ErrInvalidFee is returned when fee rates would consume the whole price
	ErrInvalidFee = errors.New("invalid fee rate")

	// ErrLedgerNotEmpty is returned when writing the init record after other records
	ErrLedgerNotEmpty = errors.New("ledger not empty")
)

var errorKinds = map[error]ErrorKind{
	ErrPriceTooLow:          ErrorKindValidation,
	ErrInvalidTokenID:       ErrorKindValidation,
	ErrTokenNotMinted:       ErrorKindValidation,
	ErrNotListed:            ErrorKindValidation,
	ErrInsufficientPayment:  ErrorKindValidation,
	ErrCreatorFeeBelowFloor: ErrorKindValidation,
	ErrAlreadyMinted:        ErrorKindValidation,
	ErrCapacityExceeded:     ErrorKindValidation,
	ErrOutOfBounds:          ErrorKindValidation,
	ErrIndexOutOfRange:      ErrorKindValidation,
	ErrUnauthorized:         ErrorKindAuthorization,
	ErrNotOwner:             ErrorKindAuthorization,
	ErrTransactingDisabled:  ErrorKindAuthorization,
	ErrAlreadyProcessed:     ErrorKindProtocol,
	ErrRecipientMismatch:    ErrorKindProtocol,
	ErrInvalidTransferKind:  ErrorKindProtocol,
	ErrSenderMismatch:       ErrorKindProtocol,
	ErrUnsettledPurchase:    ErrorKindProtocol,
	ErrNotConfigured:        ErrorKindConfiguration,
	ErrInvalidPrincipal:     ErrorKindValidation,
	ErrInvalidFee:           ErrorKindValidation,
	ErrLedgerNotEmpty:       ErrorKindValidation,
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return ErrorKindRemote
	}

	for sentinel, kind := range errorKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}

	return ErrorKindInternal
}

// RemoteErrorKind distinguishes the ways a cross-service call can fail
type RemoteErrorKind string

const (
	// RemoteErrorCall means the call never produced a response
	RemoteErrorCall RemoteErrorKind = "call"
	// RemoteErrorDecode means a response arrived but could not be decoded
	RemoteErrorDecode RemoteErrorKind = "decode"
	// RemoteErrorRejected means the remote side rejected the request
	RemoteErrorRejected RemoteErrorKind = "rejected"
)

// RemoteError is the failure of a call to another service
type RemoteError struct {
	Kind RemoteErrorKind
	Err  error
}

// NewRemoteError wraps err as a remote failure of the given kind
func NewRemoteError(kind RemoteErrorKind, err error) *RemoteError {
	return &RemoteError{Kind: kind, Err: err}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s error: %v", e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Refundable reports whether the sender of the funds should get them back.
// A call failure leaves the deposit claimable, so it is not refunded.
func (e *RemoteError) Refundable() bool {
	return e.Kind != RemoteErrorCall
}

// IsRemoteErrorKind reports whether err is a RemoteError of the given kind
func IsRemoteErrorKind(err error, kind RemoteErrorKind) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Kind == kind
}
