package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emaihl-library/internal/adapters/gateway"
	"emaihl-library/internal/adapters/persistence/models"
	"emaihl-library/internal/adapters/persistence/store"
	"emaihl-library/internal/core/domain"
	"emaihl-library/internal/pkg/validation"

	"go.uber.org/zap"
)

// Repository errors
var (
	ErrNotAcknowledged = errors.New("write was not acknowledged by the store")
)

// MalformedDocumentsError reports documents that failed to decode or validate.
// The valid documents of the same read are still returned alongside it.
type MalformedDocumentsError struct {
	Collection string
	Errs       []error
}

func (e *MalformedDocumentsError) Error() string {
	return fmt.Sprintf("%d malformed document(s) in %s: %v", len(e.Errs), e.Collection, errors.Join(e.Errs...))
}

func (e *MalformedDocumentsError) Unwrap() []error {
	return e.Errs
}

// DegradedReadError reports a collection read that failed in transport.
// The accompanying list is empty and must not be taken as the collection's contents.
type DegradedReadError struct {
	Collection string
	Err        error
}

func (e *DegradedReadError) Error() string {
	return fmt.Sprintf("read of %s degraded to an empty list: %v", e.Collection, e.Err)
}

func (e *DegradedReadError) Unwrap() error {
	return e.Err
}

// IsDegradedRead reports whether err marks a degraded read
func IsDegradedRead(err error) bool {
	var degraded *DegradedReadError
	return errors.As(err, &degraded)
}

// libraryRepository implements LibraryRepository on top of a gateway executor
type libraryRepository struct {
	gw        gateway.Executor
	validator *validation.Validator
	logger    *zap.Logger
}

// NewLibraryRepository creates a new library repository
func NewLibraryRepository(gw gateway.Executor, v *validation.Validator, logger *zap.Logger) LibraryRepository {
	return &libraryRepository{
		gw:        gw,
		validator: v,
		logger:    logger,
	}
}

// ============================================================
// Books
// ============================================================

// GetBooks lists every book
func (r *libraryRepository) GetBooks(ctx context.Context) ([]domain.Book, error) {
	docs, err := r.findAll(ctx, CollectionBooks)
	if err != nil {
		return []domain.Book{}, err
	}
	return decodeDocuments(r.validator, CollectionBooks, docs, (*models.BookDocument).ToDomain)
}

// SaveBook inserts a book
func (r *libraryRepository) SaveBook(ctx context.Context, book domain.Book) error {
	return r.insert(ctx, CollectionBooks, models.NewBookDocument(book))
}

// DeleteBook deletes a book by id
func (r *libraryRepository) DeleteBook(ctx context.Context, id string) error {
	return r.deleteByID(ctx, CollectionBooks, id)
}

// UpdateBookStatus persists a book's shelf status
func (r *libraryRepository) UpdateBookStatus(ctx context.Context, id string, status domain.BookStatus) error {
	return r.updateByID(ctx, CollectionBooks, id, store.Document{
		"$set": map[string]any{"status": string(status)},
	})
}

// ============================================================
// Students
// ============================================================

// GetStudents lists every student
func (r *libraryRepository) GetStudents(ctx context.Context) ([]domain.Student, error) {
	docs, err := r.findAll(ctx, CollectionStudents)
	if err != nil {
		return []domain.Student{}, err
	}
	return decodeDocuments(r.validator, CollectionStudents, docs, (*models.StudentDocument).ToDomain)
}

// SaveStudent inserts a student
func (r *libraryRepository) SaveStudent(ctx context.Context, student domain.Student) error {
	return r.insert(ctx, CollectionStudents, models.NewStudentDocument(student))
}

// DeleteStudent deletes a student by id
func (r *libraryRepository) DeleteStudent(ctx context.Context, id string) error {
	return r.deleteByID(ctx, CollectionStudents, id)
}

// ============================================================
// Loans
// ============================================================

// GetLoans lists every loan
func (r *libraryRepository) GetLoans(ctx context.Context) ([]domain.Loan, error) {
	docs, err := r.findAll(ctx, CollectionLoans)
	if err != nil {
		return []domain.Loan{}, err
	}
	return decodeDocuments(r.validator, CollectionLoans, docs, (*models.LoanDocument).ToDomain)
}

// SaveLoan inserts a loan
func (r *libraryRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	return r.insert(ctx, CollectionLoans, models.NewLoanDocument(loan))
}

// UpdateLoan persists a loan's status and return date; an empty return date is unset
func (r *libraryRepository) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	update := store.Document{}
	if loan.ReturnDate != "" {
		update["$set"] = map[string]any{"status": string(loan.Status), "returnDate": loan.ReturnDate}
	} else {
		update["$set"] = map[string]any{"status": string(loan.Status)}
		update["$unset"] = map[string]any{"returnDate": ""}
	}
	return r.updateByID(ctx, CollectionLoans, loan.ID, update)
}

// DeleteLoan deletes a loan by id
func (r *libraryRepository) DeleteLoan(ctx context.Context, id string) error {
	return r.deleteByID(ctx, CollectionLoans, id)
}

// ============================================================
// Feedback
// ============================================================

// SaveFeedback stores a feedback message
func (r *libraryRepository) SaveFeedback(ctx context.Context, feedback domain.Feedback) error {
	doc := &models.FeedbackDocument{
		ID:        feedback.ID,
		Type:      string(feedback.Type),
		Message:   feedback.Message,
		CreatedAt: feedback.CreatedAt.Format(time.RFC3339),
	}
	if err := r.validator.Validate(doc); err != nil {
		return err
	}
	return r.insert(ctx, CollectionFeedback, doc)
}

// ============================================================
// Gateway helpers
// ============================================================

// findAll reads a whole collection. A transport failure degrades to an empty list
// marked with *DegradedReadError.
func (r *libraryRepository) findAll(ctx context.Context, collection string) ([]store.Document, error) {
	res, err := r.gw.Execute(ctx, gateway.Request{
		Action:     gateway.ActionFind,
		Collection: collection,
		Body:       gateway.Body{Filter: store.Document{}},
	})
	if err != nil {
		r.logger.Error("❌ Failed to fetch collection, using empty list",
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil, &DegradedReadError{Collection: collection, Err: err}
	}
	return res.Documents, nil
}

func (r *libraryRepository) insert(ctx context.Context, collection string, in any) error {
	doc, err := models.Encode(in)
	if err != nil {
		return err
	}

	res, err := r.gw.Execute(ctx, gateway.Request{
		Action:     gateway.ActionInsertOne,
		Collection: collection,
		Body:       gateway.Body{Document: doc},
	})
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("insert into %s: %w", collection, ErrNotAcknowledged)
	}
	return nil
}

func (r *libraryRepository) updateByID(ctx context.Context, collection, id string, update store.Document) error {
	res, err := r.gw.Execute(ctx, gateway.Request{
		Action:     gateway.ActionUpdateOne,
		Collection: collection,
		Body: gateway.Body{
			Filter: store.Document{"id": id},
			Update: update,
		},
	})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotAcknowledged)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func (r *libraryRepository) deleteByID(ctx context.Context, collection, id string) error {
	res, err := r.gw.Execute(ctx, gateway.Request{
		Action:     gateway.ActionDeleteOne,
		Collection: collection,
		Body:       gateway.Body{Filter: store.Document{"id": id}},
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotAcknowledged)
	}
	return nil
}

// decodeDocuments converts raw documents into domain values, collecting malformed ones
func decodeDocuments[D any, E any](v *validation.Validator, collection string, docs []store.Document, toDomain func(*D) E) ([]E, error) {
	items := make([]E, 0, len(docs))
	var bad []error

	for i, doc := range docs {
		var d D
		if err := models.Decode(doc, &d); err != nil {
			bad = append(bad, fmt.Errorf("document #%d: %w", i, err))
			continue
		}
		if err := v.Validate(&d); err != nil {
			bad = append(bad, fmt.Errorf("document #%d (id=%v): %w", i, doc["id"], err))
			continue
		}
		items = append(items, toDomain(&d))
	}

	if len(bad) > 0 {
		return items, &MalformedDocumentsError{Collection: collection, Errs: bad}
	}
	return items, nil
}
