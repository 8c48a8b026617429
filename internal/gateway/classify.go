package gateway

import (
	"errors"

	storeredis "github.com/mgaultier/marks/internal/store/redis"
)

// FallbackMessage is shown when a failure carries no usable message.
const FallbackMessage = "Unexpected error. Please try again."

// Classify maps an opaque failure to a user-facing message. It is the
// last line of defense before the notification sink and never panics.
func Classify(err error) string {
	if err == nil {
		return FallbackMessage
	}

	var storeErr *storeredis.Error
	if errors.As(err, &storeErr) && storeErr != nil {
		switch storeErr.Code {
		case storeredis.CodePermissionDenied:
			return "Not authorized for this action."
		case storeredis.CodeUniqueViolation:
			return "Bookmark already exists."
		default:
			return storeErr.Message
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
