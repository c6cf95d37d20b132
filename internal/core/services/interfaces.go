package services

import (
	"context"
	"time"

	"emaihl-library/internal/core/domain"
)

// Note: LibraryService implementation is in library_service.go
// Note: InsightService implementation is in insight_service.go

// Library defines the state controller used by the HTTP layer
type Library interface {
	Phase() Phase
	Diagnostic() *Diagnostic
	Snapshot() *Snapshot
	Now() time.Time
	Reload(ctx context.Context) error

	AddBook(ctx context.Context, input BookInput) (domain.Book, error)
	DeleteBook(ctx context.Context, id string) error
	AddStudent(ctx context.Context, input StudentInput) (domain.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	AddLoan(ctx context.Context, input LoanInput) (domain.Loan, error)
	ReturnLoan(ctx context.Context, loanID string) (domain.Loan, error)
}

// Assistant defines the generative features
type Assistant interface {
	Greeting() string
	ExtractBookDetails(ctx context.Context, image []byte, mimeType string) (*BookDetails, error)
	Insights(ctx context.Context) string
	Chat(ctx context.Context, question string) (string, error)
}

// Sessions defines the passphrase gate
type Sessions interface {
	Login(ctx context.Context, passphrase string) (*Session, error)
	ValidateToken(token string) (string, error)
}

var (
	_ Library   = (*LibraryService)(nil)
	_ Assistant = (*InsightService)(nil)
	_ Sessions  = (*SessionService)(nil)
)
