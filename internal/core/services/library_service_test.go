package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"emaihl-library/internal/adapters/gateway"
	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/adapters/persistence/store"
	"emaihl-library/internal/config"
	"emaihl-library/internal/core/domain"
	"emaihl-library/internal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend unavailable")

// faultyRepo injects write failures into a working repository
type faultyRepo struct {
	repositories.LibraryRepository
	failSaveBook     error
	failBookStatus   error
	failDeleteLoan   error
	failUpdateLoanOn int // 1-based call number, 0 never
	updateLoanCalls  int
}

func (r *faultyRepo) SaveBook(ctx context.Context, b domain.Book) error {
	if r.failSaveBook != nil {
		return r.failSaveBook
	}
	return r.LibraryRepository.SaveBook(ctx, b)
}

func (r *faultyRepo) UpdateBookStatus(ctx context.Context, id string, status domain.BookStatus) error {
	if r.failBookStatus != nil {
		return r.failBookStatus
	}
	return r.LibraryRepository.UpdateBookStatus(ctx, id, status)
}

func (r *faultyRepo) DeleteLoan(ctx context.Context, id string) error {
	if r.failDeleteLoan != nil {
		return r.failDeleteLoan
	}
	return r.LibraryRepository.DeleteLoan(ctx, id)
}

func (r *faultyRepo) UpdateLoan(ctx context.Context, l domain.Loan) error {
	r.updateLoanCalls++
	if r.updateLoanCalls == r.failUpdateLoanOn {
		return errBackend
	}
	return r.LibraryRepository.UpdateLoan(ctx, l)
}

// flakyGateway fails find requests for selected collections
type flakyGateway struct {
	gateway.Executor
	mu      sync.Mutex
	failing map[string]bool
}

func (g *flakyGateway) failFind(collection string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing[collection] = true
}

func (g *flakyGateway) restore() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing = make(map[string]bool)
}

func (g *flakyGateway) Execute(ctx context.Context, req gateway.Request) (*gateway.Result, error) {
	g.mu.Lock()
	fail := req.Action == gateway.ActionFind && g.failing[req.Collection]
	g.mu.Unlock()
	if fail {
		return nil, &gateway.APIError{Status: 504, Message: "upstream timeout"}
	}
	return g.Executor.Execute(ctx, req)
}

type libraryFixture struct {
	svc   *LibraryService
	repo  *faultyRepo
	gw    *gateway.Service
	flaky *flakyGateway
	now   time.Time
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newLibraryFixture(t *testing.T, now time.Time) *libraryFixture {
	t.Helper()
	gw := gateway.NewService(store.NewMemoryStore(), zap.NewNop())
	flaky := &flakyGateway{Executor: gw, failing: make(map[string]bool)}
	repo := &faultyRepo{LibraryRepository: repositories.NewLibraryRepository(flaky, validation.New(), zap.NewNop())}
	svc := NewLibraryService(repo, nil, zap.NewNop(),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(sequentialIDs()),
	)
	return &libraryFixture{svc: svc, repo: repo, gw: gw, flaky: flaky, now: now}
}

// seed stores the standard test library and loads it
func (f *libraryFixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	base := f.repo.LibraryRepository

	require.NoError(t, base.SaveBook(ctx, domain.Book{ID: "B014", Title: "Sefiller", Author: "Victor Hugo", Status: domain.BookAvailable, AddedDate: "2023-12-01"}))
	require.NoError(t, base.SaveBook(ctx, domain.Book{ID: "B015", Title: "İnce Memed", Author: "Yaşar Kemal", Status: domain.BookAvailable, AddedDate: "2023-12-01"}))
	require.NoError(t, base.SaveStudent(ctx, domain.Student{ID: "S001", Name: "Ali Veli", StudentNumber: "1001", Grade: "9-A"}))
	require.NoError(t, base.SaveStudent(ctx, domain.Student{ID: "S002", Name: "Aliye", StudentNumber: "1002", Grade: "10-B"}))
	require.NoError(t, f.svc.Load(ctx))
}

func assertBookLoanInvariant(t *testing.T, snap *Snapshot) {
	t.Helper()
	active := make(map[string]bool)
	for _, l := range snap.Loans {
		if l.IsActive() {
			active[l.BookID] = true
		}
	}
	for _, b := range snap.Books {
		assert.Equal(t, active[b.ID], b.Status == domain.BookLoaned, "book %s status %s", b.ID, b.Status)
	}
}

func newYear() time.Time {
	return time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
}

func TestLibraryService_Load(t *testing.T) {
	f := newLibraryFixture(t, newYear())
	assert.Equal(t, PhaseLoading, f.svc.Phase())

	f.seed(t)

	assert.Equal(t, PhaseReady, f.svc.Phase())
	assert.Nil(t, f.svc.Diagnostic())
	snap := f.svc.Snapshot()
	assert.Len(t, snap.Books, 2)
	assert.Len(t, snap.Students, 2)
	assert.Empty(t, snap.Loans)
	assert.Equal(t, newYear(), snap.LoadedAt)
}

func TestLibraryService_LoadDiagnostics(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantCode string
	}{
		{
			name:     "cloud scheme",
			cfg:      config.Config{Gateway: config.GatewayConfig{URL: "mongodb+srv://cluster0.example.net"}},
			wantCode: DiagnosticWrongURLFormat,
		},
		{
			name:     "missing configuration",
			cfg:      config.Config{Store: config.StoreConfig{Driver: config.DriverMongo}},
			wantCode: DiagnosticMissingConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := gateway.NewService(store.NewMemoryStore(), zap.NewNop())
			repo := repositories.NewLibraryRepository(gw, validation.New(), zap.NewNop())
			svc := NewLibraryService(repo, tt.cfg.CheckConnection, zap.NewNop())

			err := svc.Load(context.Background())
			require.Error(t, err)

			assert.Equal(t, PhaseError, svc.Phase())
			diag := svc.Diagnostic()
			require.NotNil(t, diag)
			assert.Equal(t, tt.wantCode, diag.Code)
		})
	}
}

func TestDiagnose_Messages(t *testing.T) {
	cloud := Diagnose(fmt.Errorf("%w: gateway", config.ErrWrongURLFormat))
	generic := Diagnose(fmt.Errorf("%w: MONGODB_URI is not set", config.ErrMissingConfiguration))

	assert.Contains(t, cloud.Message, "mongodb+srv://")
	assert.NotContains(t, generic.Message, "mongodb+srv://")
	assert.Contains(t, generic.Message, "MONGODB_URI")
	assert.NotEqual(t, cloud.Title, generic.Title)
}

func TestLibraryService_ReloadLeavesErrorPhase(t *testing.T) {
	gw := gateway.NewService(store.NewMemoryStore(), zap.NewNop())
	repo := repositories.NewLibraryRepository(gw, validation.New(), zap.NewNop())

	broken := true
	check := func() error {
		if broken {
			return config.ErrMissingConfiguration
		}
		return nil
	}
	svc := NewLibraryService(repo, check, zap.NewNop())

	require.Error(t, svc.Load(context.Background()))
	assert.Equal(t, PhaseError, svc.Phase())

	broken = false
	require.NoError(t, svc.Reload(context.Background()))
	assert.Equal(t, PhaseReady, svc.Phase())
	assert.Nil(t, svc.Diagnostic())
}

func TestLibraryService_CommandsRequireReady(t *testing.T) {
	f := newLibraryFixture(t, newYear())

	_, err := f.svc.AddBook(context.Background(), BookInput{Title: "Sefiller"})
	assert.ErrorIs(t, err, ErrNotReady)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "add book", cmdErr.Op)
}

func TestLibraryService_AddLoan(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	loan, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", loan.LoanDate)
	assert.Equal(t, "2024-01-16", loan.DueDate)
	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.Regexp(t, `^L-`, loan.ID)

	snap := f.svc.Snapshot()
	require.Len(t, snap.Loans, 1)
	assert.Equal(t, domain.BookLoaned, snap.Books[snap.bookIndex("B014")].Status)
	assertBookLoanInvariant(t, snap)

	// the flip is persisted too
	books, err := f.repo.GetBooks(ctx)
	require.NoError(t, err)
	for _, b := range books {
		if b.ID == "B014" {
			assert.Equal(t, domain.BookLoaned, b.Status)
		}
	}
	loans, err := f.repo.GetLoans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Loan{loan}, loans)
}

func TestLibraryService_AddLoanRejections(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	_, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidLoanPeriod)
	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: MaxLoanDays + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidLoanPeriod)
	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B999", StudentID: "S002", Days: 15})
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S999", Days: 15})
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)

	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: MaxLoanDays})
	require.NoError(t, err)
	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S001", Days: 15})
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)

	assert.Len(t, f.svc.Snapshot().Loans, 1)
}

func TestLibraryService_ReturnLoan(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	loan, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)

	returned, err := f.svc.ReturnLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, returned.Status)
	assert.Equal(t, newYear().Format(time.RFC3339), returned.ReturnDate)

	snap := f.svc.Snapshot()
	assert.Equal(t, domain.BookAvailable, snap.Books[snap.bookIndex("B014")].Status)
	assertBookLoanInvariant(t, snap)

	_, err = f.svc.ReturnLoan(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrLoanNotActive)
	_, err = f.svc.ReturnLoan(ctx, "L-missing")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestLibraryService_AddLoanCompensatesFailedFlip(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)
	before := f.svc.Snapshot()

	f.repo.failBookStatus = errBackend
	_, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.ErrorIs(t, err, errBackend)
	assert.NotErrorIs(t, err, ErrInconsistentWrite)

	assert.Equal(t, before, f.svc.Snapshot())
	loans, err := f.repo.GetLoans(ctx)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestLibraryService_AddLoanInconsistentWrite(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	f.repo.failBookStatus = errBackend
	f.repo.failDeleteLoan = errBackend
	_, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.ErrorIs(t, err, ErrInconsistentWrite)

	// the remote loan could not be removed, so the local library mirrors it
	snap := f.svc.Snapshot()
	require.Len(t, snap.Loans, 1)
	assertBookLoanInvariant(t, snap)
}

func TestLibraryService_ReturnLoanCompensatesFailedFlip(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	loan, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)

	f.repo.failBookStatus = errBackend
	_, err = f.svc.ReturnLoan(ctx, loan.ID)
	require.ErrorIs(t, err, errBackend)

	loans, err := f.repo.GetLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, domain.LoanActive, loans[0].Status)
	assert.Empty(t, loans[0].ReturnDate)

	snap := f.svc.Snapshot()
	assert.True(t, snap.Loans[0].IsActive())
	assertBookLoanInvariant(t, snap)
}

func TestLibraryService_ReturnLoanFailedWriteLeavesState(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	loan, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)
	before := f.svc.Snapshot()

	f.repo.failUpdateLoanOn = f.repo.updateLoanCalls + 1
	_, err = f.svc.ReturnLoan(ctx, loan.ID)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, before, f.svc.Snapshot())
}

func TestLibraryService_ReturnLoanForDeletedBook(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	loan, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteBook(ctx, "B014"))

	returned, err := f.svc.ReturnLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, returned.Status)
}

func TestLibraryService_AddBook(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	book, err := f.svc.AddBook(ctx, BookInput{Title: "  Nutuk  "})
	require.NoError(t, err)
	assert.Equal(t, domain.Book{
		ID:        "id-1",
		Title:     "Nutuk",
		Author:    DefaultAuthor,
		ISBN:      DefaultISBN,
		Category:  DefaultCategory,
		Publisher: DefaultPublisher,
		AddedDate: "2024-01-01",
		Status:    domain.BookAvailable,
	}, book)
	assert.Len(t, f.svc.Snapshot().Books, 3)

	_, err = f.svc.AddBook(ctx, BookInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	f.repo.failSaveBook = errBackend
	_, err = f.svc.AddBook(ctx, BookInput{Title: "Çalıkuşu"})
	assert.ErrorIs(t, err, errBackend)
	assert.Len(t, f.svc.Snapshot().Books, 3)
}

func TestLibraryService_Students(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	st, err := f.svc.AddStudent(ctx, StudentInput{Name: "Kezban", StudentNumber: "1003"})
	require.NoError(t, err)
	assert.Equal(t, DefaultGrade, st.Grade)

	_, err = f.svc.AddStudent(ctx, StudentInput{Name: "Kezban"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B015", StudentID: st.ID, Days: 15})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteStudent(ctx, st.ID))

	snap := f.svc.Snapshot()
	assert.Len(t, snap.Students, 2)
	require.Len(t, snap.Loans, 1)
	assert.Equal(t, UnknownStudent, LoanRows(snap, f.now)[0].StudentName)

	err = f.svc.DeleteStudent(ctx, st.ID)
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}

func TestLibraryService_LoadReconcilesBookStatus(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	base := f.repo.LibraryRepository

	require.NoError(t, base.SaveBook(ctx, domain.Book{ID: "B1", Title: "Drifted", Status: domain.BookLoaned}))
	require.NoError(t, base.SaveBook(ctx, domain.Book{ID: "B2", Title: "Lent", Status: domain.BookAvailable}))
	require.NoError(t, base.SaveLoan(ctx, domain.Loan{ID: "L-1", BookID: "B2", StudentID: "S1", LoanDate: "2024-01-01", DueDate: "2024-01-16", Status: domain.LoanActive}))
	require.NoError(t, f.svc.Load(ctx))

	assertBookLoanInvariant(t, f.svc.Snapshot())

	books, err := base.GetBooks(ctx)
	require.NoError(t, err)
	for _, b := range books {
		if b.ID == "B1" {
			assert.Equal(t, domain.BookAvailable, b.Status)
		} else {
			assert.Equal(t, domain.BookLoaned, b.Status)
		}
	}
}

func TestLibraryService_LoadSkipsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())

	_, err := f.gw.Execute(ctx, gateway.Request{
		Action:     gateway.ActionInsertOne,
		Collection: repositories.CollectionStudents,
		Body:       gateway.Body{Document: store.Document{"id": "S9"}},
	})
	require.NoError(t, err)
	f.seed(t)

	assert.Equal(t, PhaseReady, f.svc.Phase())
	assert.Len(t, f.svc.Snapshot().Students, 2)
}

func TestLibraryService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	require.ErrorIs(t, f.svc.Refresh(ctx), ErrNotReady)

	f.seed(t)
	require.NoError(t, f.repo.LibraryRepository.SaveStudent(ctx, domain.Student{ID: "S003", Name: "Kezban", StudentNumber: "1003"}))

	require.NoError(t, f.svc.Refresh(ctx))
	assert.Len(t, f.svc.Snapshot().Students, 3)
}

func TestLibraryService_SnapshotIsCopy(t *testing.T) {
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	snap := f.svc.Snapshot()
	snap.Books[0].Title = "changed"
	assert.NotEqual(t, "changed", f.svc.Snapshot().Books[0].Title)
}

func activeLoansFor(loans []domain.Loan, bookID string) int {
	n := 0
	for _, l := range loans {
		if l.IsActive() && l.BookID == bookID {
			n++
		}
	}
	return n
}

func storedBookStatus(t *testing.T, f *libraryFixture, id string) domain.BookStatus {
	t.Helper()
	books, err := f.repo.LibraryRepository.GetBooks(context.Background())
	require.NoError(t, err)
	for _, b := range books {
		if b.ID == id {
			return b.Status
		}
	}
	t.Fatalf("book %s not stored", id)
	return ""
}

func TestLibraryService_RefreshKeepsSnapshotOnDegradedRead(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	_, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)

	f.flaky.failFind(repositories.CollectionLoans)
	err = f.svc.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, repositories.IsDegradedRead(err))
	f.flaky.restore()

	assert.Equal(t, domain.BookLoaned, storedBookStatus(t, f, "B014"))

	snap := f.svc.Snapshot()
	assert.Len(t, snap.Loans, 1)
	assertBookLoanInvariant(t, snap)

	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S001", Days: 15})
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)

	require.NoError(t, f.svc.Refresh(ctx))
	snap = f.svc.Snapshot()
	assert.Equal(t, 1, activeLoansFor(snap.Loans, "B014"))
	assertBookLoanInvariant(t, snap)
}

func TestLibraryService_LoadFromPartialReadKeepsStoredStatuses(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	_, err := f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S002", Days: 15})
	require.NoError(t, err)

	f.flaky.failFind(repositories.CollectionLoans)
	require.NoError(t, f.svc.Reload(ctx))
	f.flaky.restore()

	assert.Equal(t, PhaseReady, f.svc.Phase())
	snap := f.svc.Snapshot()
	assert.Empty(t, snap.Loans)
	assert.Len(t, snap.Books, 2)
	assert.Equal(t, domain.BookLoaned, storedBookStatus(t, f, "B014"))

	_, err = f.svc.AddLoan(ctx, LoanInput{BookID: "B014", StudentID: "S001", Days: 15})
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)

	require.NoError(t, f.svc.Refresh(ctx))
	snap = f.svc.Snapshot()
	assert.Equal(t, 1, activeLoansFor(snap.Loans, "B014"))
	assertBookLoanInvariant(t, snap)
}

func TestLibraryService_ConcurrentCommands(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture(t, newYear())
	f.seed(t)

	const workers = 20
	var (
		wg       sync.WaitGroup
		lent     atomic.Int32
		conflict atomic.Int32
	)

	for i := 0; i < workers; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddBook(ctx, BookInput{Title: fmt.Sprintf("Book %d", i)})
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			book, student := "B014", "S001"
			if i%2 == 1 {
				book, student = "B015", "S002"
			}
			_, err := f.svc.AddLoan(ctx, LoanInput{BookID: book, StudentID: student, Days: 15})
			switch {
			case err == nil:
				lent.Add(1)
			case errors.Is(err, domain.ErrBookUnavailable):
				conflict.Add(1)
			default:
				t.Errorf("unexpected loan error: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			assertBookLoanInvariant(t, f.svc.Snapshot())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, lent.Load())
	assert.EqualValues(t, workers-2, conflict.Load())

	snap := f.svc.Snapshot()
	assert.Len(t, snap.Books, workers+2)
	require.Len(t, snap.Loans, 2)
	assertBookLoanInvariant(t, snap)

	var returned atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(loanID string) {
			defer wg.Done()
			if _, err := f.svc.ReturnLoan(ctx, loanID); err == nil {
				returned.Add(1)
			} else {
				assert.ErrorIs(t, err, domain.ErrLoanNotActive)
			}
		}(snap.Loans[i%2].ID)
	}
	wg.Wait()

	assert.EqualValues(t, 2, returned.Load())
	final := f.svc.Snapshot()
	assertBookLoanInvariant(t, final)
	for _, b := range final.Books {
		assert.True(t, b.IsAvailable(), b.ID)
	}

	// the store agrees with the snapshot
	require.NoError(t, f.svc.Refresh(ctx))
	stored := f.svc.Snapshot()
	assert.Len(t, stored.Books, workers+2)
	assert.Len(t, stored.Loans, 2)
	assertBookLoanInvariant(t, stored)
}
