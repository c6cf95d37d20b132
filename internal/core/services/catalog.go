package services

import (
	"sort"
	"strings"
	"time"

	"emaihl-library/internal/core/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CandidateLimit caps search-as-you-type results in the loan form
const CandidateLimit = 5

// Labels for loans whose book or student was deleted
const (
	UnknownBook    = "Unknown Book"
	UnknownStudent = "Unknown Student"
)

// Status filter values for the book list
const (
	StatusFilterAll       = "All"
	StatusFilterAvailable = "Available"
	StatusFilterLoaned    = "Loaned"
)

// BookFilter narrows the book list
type BookFilter struct {
	Query  string
	Status string
}

// StudentFilter narrows the student list
type StudentFilter struct {
	Query string
	Grade string
}

// LoanRow is a loan joined with display names
type LoanRow struct {
	Loan          domain.Loan
	BookTitle     string
	StudentName   string
	DisplayStatus domain.LoanStatus
	CanReturn     bool
}

// FilterBooks matches query against title or author, case-insensitively, and the status filter
func FilterBooks(books []domain.Book, f BookFilter) []domain.Book {
	fold := cases.Lower(language.Und)
	q := fold.String(f.Query)

	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if f.Status != "" && f.Status != StatusFilterAll && string(b.Status) != f.Status {
			continue
		}
		if strings.Contains(fold.String(b.Title), q) || strings.Contains(fold.String(b.Author), q) {
			out = append(out, b)
		}
	}
	return out
}

// FilterStudents matches query against the name case-insensitively or the student number as typed
func FilterStudents(students []domain.Student, f StudentFilter) []domain.Student {
	fold := cases.Lower(language.Und)
	q := fold.String(f.Query)

	out := make([]domain.Student, 0, len(students))
	for _, s := range students {
		if f.Grade != "" && f.Grade != StatusFilterAll && s.Grade != f.Grade {
			continue
		}
		if strings.Contains(fold.String(s.Name), q) || strings.Contains(s.StudentNumber, f.Query) {
			out = append(out, s)
		}
	}
	return out
}

// Grades returns the distinct grades, sorted
func Grades(students []domain.Student) []string {
	seen := make(map[string]bool)
	grades := make([]string, 0)
	for _, s := range students {
		if s.Grade == "" || seen[s.Grade] {
			continue
		}
		seen[s.Grade] = true
		grades = append(grades, s.Grade)
	}
	sort.Strings(grades)
	return grades
}

// SearchAvailableBooks returns the first available books whose title contains query,
// folding case with Turkish rules
func SearchAvailableBooks(books []domain.Book, query string) []domain.Book {
	fold := cases.Lower(language.Turkish)
	q := fold.String(query)

	out := make([]domain.Book, 0, CandidateLimit)
	for _, b := range books {
		if len(out) == CandidateLimit {
			break
		}
		if b.IsAvailable() && strings.Contains(fold.String(b.Title), q) {
			out = append(out, b)
		}
	}
	return out
}

// SearchStudents returns the first students whose name contains query, folding case with Turkish rules
func SearchStudents(students []domain.Student, query string) []domain.Student {
	fold := cases.Lower(language.Turkish)
	q := fold.String(query)

	out := make([]domain.Student, 0, CandidateLimit)
	for _, s := range students {
		if len(out) == CandidateLimit {
			break
		}
		if strings.Contains(fold.String(s.Name), q) {
			out = append(out, s)
		}
	}
	return out
}

// LoanRows joins loans with book titles and student names, newest first
func LoanRows(snap *Snapshot, now time.Time) []LoanRow {
	titles := make(map[string]string, len(snap.Books))
	for _, b := range snap.Books {
		titles[b.ID] = b.Title
	}
	names := make(map[string]string, len(snap.Students))
	for _, s := range snap.Students {
		names[s.ID] = s.Name
	}

	rows := make([]LoanRow, 0, len(snap.Loans))
	for i := len(snap.Loans) - 1; i >= 0; i-- {
		l := snap.Loans[i]
		row := LoanRow{
			Loan:          l,
			BookTitle:     UnknownBook,
			StudentName:   UnknownStudent,
			DisplayStatus: l.DisplayStatus(now),
			CanReturn:     l.IsActive(),
		}
		if t, ok := titles[l.BookID]; ok {
			row.BookTitle = t
		}
		if n, ok := names[l.StudentID]; ok {
			row.StudentName = n
		}
		rows = append(rows, row)
	}
	return rows
}
