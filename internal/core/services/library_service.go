package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Library errors
var (
	ErrNotReady          = errors.New("library is not ready")
	ErrInconsistentWrite = errors.New("remote write could not be rolled back")
)

// Loan term limits in days
const (
	MinLoanDays     = 1
	MaxLoanDays     = 60
	DefaultLoanDays = 15
)

// Creation defaults
const (
	DefaultAuthor    = "Unknown"
	DefaultISBN      = "NO-ISBN"
	DefaultCategory  = "Novel"
	DefaultPublisher = "-"
	DefaultGrade     = "Unspecified"
)

// Phase is the lifecycle state of the library cache
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Diagnostic explains why the library could not start
type Diagnostic struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Diagnostic codes
const (
	DiagnosticWrongURLFormat       = "WRONG_URL_FORMAT"
	DiagnosticMissingConfiguration = "MISSING_CONFIGURATION"
)

// CommandError is returned by a library command whose remote write failed.
// Local state is unchanged unless Err wraps ErrInconsistentWrite.
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Snapshot is one consistent view of the library
type Snapshot struct {
	Books    []domain.Book
	Students []domain.Student
	Loans    []domain.Loan
	LoadedAt time.Time
}

func (s *Snapshot) clone() *Snapshot {
	return &Snapshot{
		Books:    append([]domain.Book(nil), s.Books...),
		Students: append([]domain.Student(nil), s.Students...),
		Loans:    append([]domain.Loan(nil), s.Loans...),
		LoadedAt: s.LoadedAt,
	}
}

func (s *Snapshot) bookIndex(id string) int {
	for i, b := range s.Books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) studentIndex(id string) int {
	for i, st := range s.Students {
		if st.ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) loanIndex(id string) int {
	for i, l := range s.Loans {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// ConnectionCheck verifies configuration before the first load
type ConnectionCheck func() error

// LibraryOption customises a LibraryService
type LibraryOption func(*LibraryService)

// WithClock overrides the time source
func WithClock(now func() time.Time) LibraryOption {
	return func(s *LibraryService) { s.now = now }
}

// WithIDGenerator overrides identifier generation
func WithIDGenerator(newID func() string) LibraryOption {
	return func(s *LibraryService) { s.newID = newID }
}

// LibraryService owns the in-memory library and every command that changes it
type LibraryService struct {
	repo   repositories.LibraryRepository
	check  ConnectionCheck
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	// writeMu serialises commands, loads and refreshes so a remote write and
	// its local commit are never interleaved with another one.
	writeMu sync.Mutex

	mu    sync.RWMutex
	phase Phase
	snap  *Snapshot
	diag  *Diagnostic
}

// NewLibraryService creates a library in the loading phase. Call Load to populate it.
func NewLibraryService(repo repositories.LibraryRepository, check ConnectionCheck, logger *zap.Logger, opts ...LibraryOption) *LibraryService {
	s := &LibraryService{
		repo:   repo,
		check:  check,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		phase:  PhaseLoading,
		snap:   &Snapshot{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================
// Lifecycle
// ============================================================

// Load checks the configuration and fetches every collection.
// On failure the library enters the error phase and stays there until Reload.
func (s *LibraryService) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.phase = PhaseLoading
	s.diag = nil
	s.mu.Unlock()

	if s.check != nil {
		if err := s.check(); err != nil {
			s.fail(err)
			return err
		}
	}

	snap, err := s.fetch(ctx)
	switch {
	case repositories.IsDegradedRead(err):
		// Stored book statuses stay untouched until a complete read can vouch for them
		s.logger.Warn("⚠️ Library loaded from a partial read, skipping status reconciliation", zap.Error(err))
	case err != nil:
		s.fail(err)
		return err
	default:
		s.reconcile(ctx, snap)
	}

	s.mu.Lock()
	s.snap = snap
	s.phase = PhaseReady
	s.mu.Unlock()

	s.logger.Info("📚 Library loaded",
		zap.Int("books", len(snap.Books)),
		zap.Int("students", len(snap.Students)),
		zap.Int("loans", len(snap.Loans)),
	)
	return nil
}

// Reload is the manual escape hatch out of the error phase
func (s *LibraryService) Reload(ctx context.Context) error {
	s.logger.Info("🔄 Library reload requested")
	return s.Load(ctx)
}

// Refresh replaces the ready snapshot with a fresh copy of the remote collections.
// A partial read keeps the current snapshot.
func (s *LibraryService) Refresh(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Phase() != PhaseReady {
		return ErrNotReady
	}

	snap, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh skipped, keeping current snapshot: %w", err)
	}
	s.reconcile(ctx, snap)

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// Phase returns the current lifecycle phase
func (s *LibraryService) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Diagnostic returns the error-phase explanation, or nil
func (s *LibraryService) Diagnostic() *Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.diag == nil {
		return nil
	}
	d := *s.diag
	return &d
}

// Snapshot returns a copy of the current library
func (s *LibraryService) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Now returns the service clock's current time
func (s *LibraryService) Now() time.Time {
	return s.now()
}

func (s *LibraryService) fail(err error) {
	diag := Diagnose(err)

	s.mu.Lock()
	s.phase = PhaseError
	s.diag = diag
	s.mu.Unlock()

	s.logger.Error("❌ Library failed to load", zap.String("code", diag.Code), zap.Error(err))
}

// fetch reads every collection concurrently. Malformed documents are skipped; a collection
// whose read degraded to an empty list is reported in the returned error, which is a
// *repositories.DegradedReadError alongside a usable snapshot.
func (s *LibraryService) fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	var booksErr, studentsErr, loansErr error
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		books, err := s.repo.GetBooks(gctx)
		snap.Books, booksErr = books, s.tolerateMalformed(err)
		return fatal(booksErr)
	})
	g.Go(func() error {
		students, err := s.repo.GetStudents(gctx)
		snap.Students, studentsErr = students, s.tolerateMalformed(err)
		return fatal(studentsErr)
	})
	g.Go(func() error {
		loans, err := s.repo.GetLoans(gctx)
		snap.Loans, loansErr = loans, s.tolerateMalformed(err)
		return fatal(loansErr)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.LoadedAt = s.now()
	return snap, errors.Join(booksErr, studentsErr, loansErr)
}

// fatal lets a degraded read through so the other collections still load
func fatal(err error) error {
	if err == nil || repositories.IsDegradedRead(err) {
		return nil
	}
	return err
}

// reconcile makes every book Loaned iff an active loan references it,
// persisting corrections on a best-effort basis.
func (s *LibraryService) reconcile(ctx context.Context, snap *Snapshot) {
	loaned := make(map[string]bool)
	for _, l := range snap.Loans {
		if l.IsActive() {
			loaned[l.BookID] = true
		}
	}

	for i, b := range snap.Books {
		want := domain.BookAvailable
		if loaned[b.ID] {
			want = domain.BookLoaned
		}
		if b.Status == want {
			continue
		}

		snap.Books[i].Status = want
		if err := s.repo.UpdateBookStatus(ctx, b.ID, want); err != nil {
			s.logger.Warn("⚠️ Could not persist reconciled book status",
				zap.String("book_id", b.ID),
				zap.String("status", string(want)),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("🔧 Book status reconciled", zap.String("book_id", b.ID), zap.String("status", string(want)))
	}
}

// Diagnose maps a load failure to the explanation shown to the librarian
func Diagnose(err error) *Diagnostic {
	if errors.Is(err, config.ErrWrongURLFormat) {
		return &Diagnostic{
			Code:  DiagnosticWrongURLFormat,
			Title: "Wrong connection address",
			Message: "The gateway address starts with mongodb+srv://, which is a database connection string and not a web address. " +
				"Put the connection string in MONGODB_URI and leave GATEWAY_URL empty, or set GATEWAY_URL to the https:// address of the record gateway.",
			Detail: err.Error(),
		}
	}
	return &Diagnostic{
		Code:  DiagnosticMissingConfiguration,
		Title: "Database connection missing",
		Message: "The library could not reach its record store. " +
			"Check that MONGODB_URI (or GATEWAY_URL) and GEMINI_API_KEY are set for this deployment, then reload.",
		Detail: err.Error(),
	}
}

// ============================================================
// Commands
// ============================================================

// BookInput holds the fields a librarian enters for a new book
type BookInput struct {
	Title     string
	Author    string
	ISBN      string
	Category  string
	Publisher string
	PageCount int
}

// StudentInput holds the fields for a new student
type StudentInput struct {
	Name          string
	StudentNumber string
	Grade         string
	Email         string
	Phone         string
}

// LoanInput holds the fields for a new loan
type LoanInput struct {
	BookID    string
	StudentID string
	Days      int
}

// exec runs fn against the ready snapshot. fn performs the remote writes and returns
// the local change to commit, which may be non-nil even when it also returns an error.
func (s *LibraryService) exec(op string, fn func(cur *Snapshot) (func(*Snapshot), error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	phase, cur := s.phase, s.snap
	s.mu.RUnlock()

	if phase != PhaseReady {
		return &CommandError{Op: op, Err: ErrNotReady}
	}

	apply, err := fn(cur)
	if apply != nil {
		s.mu.Lock()
		next := s.snap.clone()
		apply(next)
		s.snap = next
		s.mu.Unlock()
	}
	if err != nil {
		return &CommandError{Op: op, Err: err}
	}
	return nil
}

// AddBook creates a book on the shelf
func (s *LibraryService) AddBook(ctx context.Context, input BookInput) (domain.Book, error) {
	var book domain.Book
	err := s.exec("add book", func(*Snapshot) (func(*Snapshot), error) {
		title := strings.TrimSpace(input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
		}
		if input.PageCount < 0 {
			return nil, fmt.Errorf("%w: page count cannot be negative", domain.ErrInvalidInput)
		}

		book = domain.Book{
			ID:        s.newID(),
			Title:     title,
			Author:    orDefault(input.Author, DefaultAuthor),
			ISBN:      orDefault(input.ISBN, DefaultISBN),
			Category:  orDefault(input.Category, DefaultCategory),
			Publisher: orDefault(input.Publisher, DefaultPublisher),
			PageCount: input.PageCount,
			AddedDate: domain.FormatDate(s.now()),
			Status:    domain.BookAvailable,
		}
		if err := s.repo.SaveBook(ctx, book); err != nil {
			return nil, err
		}

		return func(next *Snapshot) {
			next.Books = append(next.Books, book)
		}, nil
	})
	if err != nil {
		return domain.Book{}, err
	}

	s.logger.Info("✅ Book added", zap.String("book_id", book.ID), zap.String("title", book.Title))
	return book, nil
}

// DeleteBook removes a book. Loans that reference it are kept and shown as Unknown Book.
func (s *LibraryService) DeleteBook(ctx context.Context, id string) error {
	err := s.exec("delete book", func(cur *Snapshot) (func(*Snapshot), error) {
		if cur.bookIndex(id) < 0 {
			return nil, domain.ErrBookNotFound
		}
		if err := s.repo.DeleteBook(ctx, id); err != nil {
			return nil, err
		}

		return func(next *Snapshot) {
			if i := next.bookIndex(id); i >= 0 {
				next.Books = append(next.Books[:i], next.Books[i+1:]...)
			}
		}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("🗑️ Book deleted", zap.String("book_id", id))
	return nil
}

// AddStudent registers a student
func (s *LibraryService) AddStudent(ctx context.Context, input StudentInput) (domain.Student, error) {
	var student domain.Student
	err := s.exec("add student", func(*Snapshot) (func(*Snapshot), error) {
		name := strings.TrimSpace(input.Name)
		number := strings.TrimSpace(input.StudentNumber)
		if name == "" || number == "" {
			return nil, fmt.Errorf("%w: name and student number are required", domain.ErrInvalidInput)
		}

		student = domain.Student{
			ID:            s.newID(),
			Name:          name,
			StudentNumber: number,
			Grade:         orDefault(input.Grade, DefaultGrade),
			Email:         strings.TrimSpace(input.Email),
			Phone:         strings.TrimSpace(input.Phone),
		}
		if err := s.repo.SaveStudent(ctx, student); err != nil {
			return nil, err
		}

		return func(next *Snapshot) {
			next.Students = append(next.Students, student)
		}, nil
	})
	if err != nil {
		return domain.Student{}, err
	}

	s.logger.Info("✅ Student added", zap.String("student_id", student.ID), zap.String("name", student.Name))
	return student, nil
}

// DeleteStudent removes a student. Loans that reference them are kept and shown as Unknown Student.
func (s *LibraryService) DeleteStudent(ctx context.Context, id string) error {
	err := s.exec("delete student", func(cur *Snapshot) (func(*Snapshot), error) {
		if cur.studentIndex(id) < 0 {
			return nil, domain.ErrStudentNotFound
		}
		if err := s.repo.DeleteStudent(ctx, id); err != nil {
			return nil, err
		}

		return func(next *Snapshot) {
			if i := next.studentIndex(id); i >= 0 {
				next.Students = append(next.Students[:i], next.Students[i+1:]...)
			}
		}, nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("🗑️ Student deleted", zap.String("student_id", id))
	return nil
}

// AddLoan hands an available book to a student for input.Days days
func (s *LibraryService) AddLoan(ctx context.Context, input LoanInput) (domain.Loan, error) {
	var loan domain.Loan
	err := s.exec("add loan", func(cur *Snapshot) (func(*Snapshot), error) {
		if input.Days < MinLoanDays || input.Days > MaxLoanDays {
			return nil, domain.ErrInvalidLoanPeriod
		}
		bi := cur.bookIndex(input.BookID)
		if bi < 0 {
			return nil, domain.ErrBookNotFound
		}
		if !cur.Books[bi].IsAvailable() {
			return nil, domain.ErrBookUnavailable
		}
		if cur.studentIndex(input.StudentID) < 0 {
			return nil, domain.ErrStudentNotFound
		}

		now := s.now()
		loan = domain.Loan{
			ID:        "L-" + s.newID(),
			BookID:    input.BookID,
			StudentID: input.StudentID,
			LoanDate:  domain.FormatDate(now),
			DueDate:   domain.FormatDate(now.AddDate(0, 0, input.Days)),
			Status:    domain.LoanActive,
		}

		if err := s.repo.SaveLoan(ctx, loan); err != nil {
			return nil, err
		}

		commit := func(next *Snapshot) {
			next.Loans = append(next.Loans, loan)
			if i := next.bookIndex(loan.BookID); i >= 0 {
				next.Books[i].Status = domain.BookLoaned
			}
		}

		if err := s.repo.UpdateBookStatus(ctx, loan.BookID, domain.BookLoaned); err != nil {
			if compErr := s.repo.DeleteLoan(ctx, loan.ID); compErr != nil {
				s.logger.Error("❌ Loan compensation failed",
					zap.String("loan_id", loan.ID),
					zap.NamedError("flip_error", err),
					zap.NamedError("compensation_error", compErr),
				)
				return commit, errors.Join(ErrInconsistentWrite, err, compErr)
			}
			return nil, err
		}
		return commit, nil
	})
	if err != nil {
		return domain.Loan{}, err
	}

	s.logger.Info("✅ Loan created",
		zap.String("loan_id", loan.ID),
		zap.String("book_id", loan.BookID),
		zap.String("student_id", loan.StudentID),
		zap.String("due_date", loan.DueDate),
	)
	return loan, nil
}

// ReturnLoan marks an active loan returned and puts the book back on the shelf
func (s *LibraryService) ReturnLoan(ctx context.Context, loanID string) (domain.Loan, error) {
	var returned domain.Loan
	err := s.exec("return loan", func(cur *Snapshot) (func(*Snapshot), error) {
		li := cur.loanIndex(loanID)
		if li < 0 {
			return nil, domain.ErrLoanNotFound
		}
		original := cur.Loans[li]
		if !original.IsActive() {
			return nil, domain.ErrLoanNotActive
		}

		returned = original
		returned.Status = domain.LoanReturned
		returned.ReturnDate = s.now().Format(time.RFC3339)

		if err := s.repo.UpdateLoan(ctx, returned); err != nil {
			return nil, err
		}

		commit := func(next *Snapshot) {
			if i := next.loanIndex(loanID); i >= 0 {
				next.Loans[i] = returned
			}
			if i := next.bookIndex(returned.BookID); i >= 0 {
				next.Books[i].Status = domain.BookAvailable
			}
		}

		if cur.bookIndex(returned.BookID) < 0 {
			s.logger.Warn("⚠️ Returned loan references a missing book", zap.String("loan_id", loanID), zap.String("book_id", returned.BookID))
			return commit, nil
		}

		if err := s.repo.UpdateBookStatus(ctx, returned.BookID, domain.BookAvailable); err != nil {
			if compErr := s.repo.UpdateLoan(ctx, original); compErr != nil {
				s.logger.Error("❌ Return compensation failed",
					zap.String("loan_id", loanID),
					zap.NamedError("flip_error", err),
					zap.NamedError("compensation_error", compErr),
				)
				return commit, errors.Join(ErrInconsistentWrite, err, compErr)
			}
			return nil, err
		}
		return commit, nil
	})
	if err != nil {
		return domain.Loan{}, err
	}

	s.logger.Info("✅ Loan returned", zap.String("loan_id", returned.ID), zap.String("book_id", returned.BookID))
	return returned, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
