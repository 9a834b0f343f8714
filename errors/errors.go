package errors

import "fmt"

var (
	ErrConnectionUnavailable = fmt.Errorf("database connection unavailable")
	ErrInvalidKey            = fmt.Errorf("key is not a valid object identifier")
	ErrTransactionAborted    = fmt.Errorf("transaction aborted")
	ErrServiceLoad           = fmt.Errorf("service failed to load")
	ErrSinkClosed            = fmt.Errorf("session sink closed")
)
