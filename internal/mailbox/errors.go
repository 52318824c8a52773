package mailbox

import "errors"

// Core errors. An authorization DENY and a genuinely missing mailbox both
// surface as ErrMailboxNotFound; callers must never be able to tell the two
// apart, or the existence of someone else's mailbox leaks.
var (
	ErrMailboxNotFound = errors.New("mailbox not found")
	ErrMailNotInView   = errors.New("mail not in current view")
	ErrViewNotFound    = errors.New("view not found")
)

// Error codes for API responses
const (
	CodeMailboxNotFound  = "MAILBOX_NOT_FOUND"
	CodeMailNotFound     = "MAIL_NOT_FOUND"
	CodeViewNotFound     = "VIEW_NOT_FOUND"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)
