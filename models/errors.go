package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable category attached to every
// domain error. Handlers map kinds to HTTP status codes; clients switch
// on the kind string, never on the message text.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindLocked        ErrorKind = "locked"
	KindConfiguration ErrorKind = "configuration"
	KindInternal      ErrorKind = "internal"
)

// DomainError carries a kind plus a human-readable message.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause (optional)
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches two domain errors by kind and message, so the named errors
// below keep working with errors.Is after wrapping.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// WrapInternal tags an infrastructure failure (DB, storage) as internal.
// Safe to retry the whole request: all mutation runs in one transaction.
func WrapInternal(message string, err error) *DomainError {
	return &DomainError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the kind from any error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Named errors used across the admission, evaluation and settlement flows.
var (
	ErrCampaignNotFound    = NewDomainError(KindNotFound, "campaign not found")
	ErrCampaignNotActive   = NewDomainError(KindValidation, "campaign is not active")
	ErrCampaignNotStarted  = NewDomainError(KindValidation, "campaign has not started yet")
	ErrCampaignEnded       = NewDomainError(KindValidation, "campaign has already ended")
	ErrCampaignFull        = NewDomainError(KindConflict, "campaign participant limit reached")
	ErrAlreadyJoined       = NewDomainError(KindConflict, "user already joined this campaign")
	ErrNotJoined           = NewDomainError(KindValidation, "user has not joined this campaign")
	ErrCampaignHasMissions = NewDomainError(KindConflict, "campaign still has missions")

	ErrMissionNotFound       = NewDomainError(KindNotFound, "mission not found")
	ErrMissionLocked         = NewDomainError(KindLocked, "mission is locked for this user")
	ErrAlreadyCompleted      = NewDomainError(KindConflict, "mission already completed")
	ErrPendingReview         = NewDomainError(KindConflict, "submission is already awaiting review")
	ErrMissionHasCompletions = NewDomainError(KindConflict, "mission already has completions")
	ErrCompletionNotFound    = NewDomainError(KindNotFound, "mission completion not found")
	ErrCommentRequired       = NewDomainError(KindValidation, "a comment is required when rejecting")

	ErrUserNotFound        = NewDomainError(KindNotFound, "user not found")
	ErrNoInitialRank       = NewDomainError(KindConfiguration, "no initial rank configured")
	ErrAchievementNotFound = NewDomainError(KindNotFound, "achievement not found")
	ErrAchievementGranted  = NewDomainError(KindConflict, "achievement already granted to users")

	ErrStoreItemNotFound = NewDomainError(KindNotFound, "store item not found")
	ErrInsufficientMana  = NewDomainError(KindConflict, "not enough mana points")
	ErrOutOfStock        = NewDomainError(KindConflict, "store item is out of stock")

	ErrInvalidActivationCode = NewDomainError(KindValidation, "activation code must be 6 digits")
)

// HTTPStatus maps an error kind to the status code the API returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindLocked:
		return 403
	case KindConfiguration:
		return 500
	default:
		return 500
	}
}
