package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for addedDate, loanDate and dueDate
const DateLayout = "2006-01-02"

// BookStatus represents the shelf status of a book
type BookStatus string

const (
	BookAvailable BookStatus = "Available"
	BookLoaned    BookStatus = "Loaned"
)

// LoanStatus represents the status of a loan.
// Only Active and Returned are ever persisted; Overdue is derived for display.
type LoanStatus string

const (
	LoanActive   LoanStatus = "Active"
	LoanReturned LoanStatus = "Returned"
	LoanOverdue  LoanStatus = "Overdue"
)

// Book represents a book in the catalog
type Book struct {
	ID        string
	Title     string
	Author    string
	ISBN      string
	Category  string
	Publisher string
	PageCount int
	AddedDate string
	Status    BookStatus
}

// IsAvailable reports whether the book is on the shelf
func (b Book) IsAvailable() bool {
	return b.Status == BookAvailable
}

// Student represents a registered student
type Student struct {
	ID            string
	Name          string
	StudentNumber string
	Grade         string
	Email         string
	Phone         string
}

// Loan represents a book handed to a student
type Loan struct {
	ID         string
	BookID     string
	StudentID  string
	LoanDate   string
	DueDate    string
	ReturnDate string
	Status     LoanStatus
}

// IsActive reports whether the loan has not been returned yet
func (l Loan) IsActive() bool {
	return l.Status == LoanActive
}

// IsOverdue reports whether an active loan's due date is strictly before now.
// Unparseable due dates are never overdue.
func (l Loan) IsOverdue(now time.Time) bool {
	if !l.IsActive() {
		return false
	}
	due, err := ParseDate(l.DueDate, now.Location())
	if err != nil {
		return false
	}
	return due.Before(now)
}

// DisplayStatus returns the status shown to the librarian
func (l Loan) DisplayStatus(now time.Time) LoanStatus {
	if l.Status == LoanReturned {
		return LoanReturned
	}
	if l.IsOverdue(now) {
		return LoanOverdue
	}
	return LoanActive
}

// FeedbackType distinguishes suggestions from bug reports
type FeedbackType string

const (
	FeedbackSuggestion FeedbackType = "feedback"
	FeedbackBug        FeedbackType = "bug"
)

// Feedback is a message left by the librarian
type Feedback struct {
	ID        string
	Type      FeedbackType
	Message   string
	CreatedAt time.Time
}

// ParseDate parses a calendar date, accepting full RFC 3339 timestamps as well
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t.In(loc), nil
}

// FormatDate formats t as a calendar date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
