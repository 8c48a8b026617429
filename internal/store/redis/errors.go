package redis

// Persistence error codes, aligned with the SQLSTATE values the rest of
// the stack understands so callers can classify failures uniformly.
const (
	// CodePermissionDenied signals a cross-owner access attempt.
	CodePermissionDenied = "42501"
	// CodeUniqueViolation signals a duplicate URL within one owner's set.
	CodeUniqueViolation = "23505"
)

// Error is a structured persistence failure. Code is empty for plain
// failures whose message can be surfaced as-is.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func permissionDenied() *Error {
	return &Error{Code: CodePermissionDenied, Message: "permission denied for bookmarks"}
}

func uniqueViolation() *Error {
	return &Error{Code: CodeUniqueViolation, Message: "duplicate key value violates unique constraint"}
}

func notFound(id string) *Error {
	return &Error{Message: "bookmark not found: " + id}
}
