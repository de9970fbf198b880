package errors

import "fmt"

var (
	ErrEmptyMessage         = fmt.Errorf("message text is empty")
	ErrRequestInFlight      = fmt.Errorf("a request is already in flight")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
)
