package domain

import "errors"

// Common domain errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// Catalog errors
var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookUnavailable = errors.New("book is not available")
	ErrStudentNotFound = errors.New("student not found")
)

// Loan errors
var (
	ErrLoanNotFound      = errors.New("loan not found")
	ErrLoanNotActive     = errors.New("loan is not active")
	ErrInvalidLoanPeriod = errors.New("loan period must be between 1 and 60 days")
)
