package domain

import "fmt"

var (
	ErrAccountNotFound       = fmt.Errorf("account not found")
	ErrAccountAlreadyExists  = fmt.Errorf("account already exists")
	ErrNoActiveAccount       = fmt.Errorf("no active account")
	ErrInvalidPaymentRequest = fmt.Errorf("invalid payment request")
)
