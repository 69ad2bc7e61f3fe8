package services

import (
	"errors"
	"strings"
)

// Failure markers. Stage packages tag every returned error with exactly one of these.
var (
	ErrToolchainMissing      = errors.New("toolchain missing")
	ErrDownloadFailed        = errors.New("download failed")
	ErrToolInvocationFailed  = errors.New("tool invocation failed")
	ErrTaggingFailed         = errors.New("tagging failed")
	ErrFinalizeFailed        = errors.New("finalize failed")
	ErrPublishRejected       = errors.New("publish rejected")
	ErrAlreadyPublished      = errors.New("already published")
	ErrPublishTransferFailed = errors.New("publish transfer failed")
	ErrListingFailed         = errors.New("listing failed")
	ErrNotificationFailed    = errors.New("notification failed")
	ErrValidation            = errors.New("validation error")
	ErrConfiguration         = errors.New("configuration error")
)

var markerLabels = []struct {
	marker error
	label  string
}{
	{ErrToolchainMissing, "ToolchainMissing"},
	{ErrDownloadFailed, "DownloadFailed"},
	{ErrToolInvocationFailed, "ToolInvocationFailed"},
	{ErrTaggingFailed, "TaggingFailed"},
	{ErrFinalizeFailed, "FinalizeFailed"},
	{ErrAlreadyPublished, "AlreadyPublished"},
	{ErrPublishRejected, "PublishRejected"},
	{ErrPublishTransferFailed, "PublishTransferFailed"},
	{ErrListingFailed, "ListingFailed"},
	{ErrNotificationFailed, "NotificationFailed"},
	{ErrValidation, "Validation"},
	{ErrConfiguration, "Configuration"},
}

// Error carries a failure marker together with the stage and operation that produced it.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	b.WriteString(e.detail())
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the marker and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Cause}
}

func (e *Error) detail() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above; nil falls back to ErrConfiguration.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrConfiguration
	}
	return &Error{
		Marker:    marker,
		Stage:     stage,
		Operation: operation,
		Message:   message,
		Cause:     err,
	}
}

// FailureDetails is the caller-facing summary of a failure.
type FailureDetails struct {
	Label   string
	Stage   string
	Message string
}

// Details extracts a label and human readable cause from err. Errors that were
// not produced by Wrap are labelled "Unexpected".
func Details(err error) FailureDetails {
	if err == nil {
		return FailureDetails{}
	}
	var wrapped *Error
	if errors.As(err, &wrapped) {
		msg := wrapped.detail()
		if wrapped.Cause != nil {
			msg += ": " + wrapped.Cause.Error()
		}
		return FailureDetails{Label: Label(err), Stage: wrapped.Stage, Message: msg}
	}
	return FailureDetails{Label: Label(err), Message: err.Error()}
}

// Label names the first marker err carries.
func Label(err error) string {
	for _, entry := range markerLabels {
		if errors.Is(err, entry.marker) {
			return entry.label
		}
	}
	return "Unexpected"
}

// IsClientError reports whether err stems from bad input rather than a broken dependency.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPublishRejected) ||
		errors.Is(err, ErrAlreadyPublished)
}
