package repositories

import (
	"context"

	"emaihl-library/internal/core/domain"
)

// Collection names in the document store
const (
	CollectionBooks    = "books"
	CollectionStudents = "students"
	CollectionLoans    = "loans"
	CollectionFeedback = "feedback"
)

// BookRepository defines book persistence.
// The Get methods degrade to an empty list on transport errors and mark it with *DegradedReadError.
type BookRepository interface {
	GetBooks(ctx context.Context) ([]domain.Book, error)
	SaveBook(ctx context.Context, book domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	UpdateBookStatus(ctx context.Context, id string, status domain.BookStatus) error
}

// StudentRepository defines student persistence
type StudentRepository interface {
	GetStudents(ctx context.Context) ([]domain.Student, error)
	SaveStudent(ctx context.Context, student domain.Student) error
	DeleteStudent(ctx context.Context, id string) error
}

// LoanRepository defines loan persistence
type LoanRepository interface {
	GetLoans(ctx context.Context) ([]domain.Loan, error)
	SaveLoan(ctx context.Context, loan domain.Loan) error
	UpdateLoan(ctx context.Context, loan domain.Loan) error
	DeleteLoan(ctx context.Context, id string) error
}

// FeedbackRepository stores librarian feedback
type FeedbackRepository interface {
	SaveFeedback(ctx context.Context, feedback domain.Feedback) error
}

// LibraryRepository is the typed facade over the record gateway
type LibraryRepository interface {
	BookRepository
	StudentRepository
	LoanRepository
	FeedbackRepository
}
