package models

import (
	"encoding/json"
	"fmt"
	"time"

	"emaihl-library/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Relational document table (STORE_DRIVER=mysql)
// ============================================================

// DocumentRecord represents documents table
type DocumentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Collection string    `gorm:"size:64;not null;index:idx_collection_doc" json:"collection"`
	DocID      string    `gorm:"size:64;not null;index:idx_collection_doc" json:"doc_id"`
	Body       string    `gorm:"type:longtext;not null" json:"body"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DocumentRecord) TableName() string {
	return "documents"
}

// AutoMigrate creates the documents table if it does not exist
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&DocumentRecord{})
}

// ============================================================
// Collection documents (wire format of the record gateway)
// ============================================================

// BookDocument is a book as stored in the books collection
type BookDocument struct {
	ID        string `json:"id" bson:"id" validate:"required"`
	Title     string `json:"title" bson:"title" validate:"required"`
	Author    string `json:"author" bson:"author"`
	ISBN      string `json:"isbn" bson:"isbn"`
	Category  string `json:"category" bson:"category"`
	AddedDate string `json:"addedDate" bson:"addedDate"`
	Publisher string `json:"publisher" bson:"publisher"`
	PageCount int    `json:"pageCount" bson:"pageCount" validate:"gte=0"`
	Status    string `json:"status" bson:"status" validate:"required,oneof=Available Loaned"`
}

// NewBookDocument converts a domain book
func NewBookDocument(b domain.Book) *BookDocument {
	return &BookDocument{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		ISBN:      b.ISBN,
		Category:  b.Category,
		AddedDate: b.AddedDate,
		Publisher: b.Publisher,
		PageCount: b.PageCount,
		Status:    string(b.Status),
	}
}

func (d *BookDocument) ToDomain() domain.Book {
	return domain.Book{
		ID:        d.ID,
		Title:     d.Title,
		Author:    d.Author,
		ISBN:      d.ISBN,
		Category:  d.Category,
		AddedDate: d.AddedDate,
		Publisher: d.Publisher,
		PageCount: d.PageCount,
		Status:    domain.BookStatus(d.Status),
	}
}

// StudentDocument is a student as stored in the students collection
type StudentDocument struct {
	ID            string `json:"id" bson:"id" validate:"required"`
	Name          string `json:"name" bson:"name" validate:"required"`
	StudentNumber string `json:"studentNumber" bson:"studentNumber"`
	Grade         string `json:"grade" bson:"grade"`
	Email         string `json:"email" bson:"email"`
	Phone         string `json:"phone" bson:"phone"`
}

// NewStudentDocument converts a domain student
func NewStudentDocument(s domain.Student) *StudentDocument {
	return &StudentDocument{
		ID:            s.ID,
		Name:          s.Name,
		StudentNumber: s.StudentNumber,
		Grade:         s.Grade,
		Email:         s.Email,
		Phone:         s.Phone,
	}
}

func (d *StudentDocument) ToDomain() domain.Student {
	return domain.Student{
		ID:            d.ID,
		Name:          d.Name,
		StudentNumber: d.StudentNumber,
		Grade:         d.Grade,
		Email:         d.Email,
		Phone:         d.Phone,
	}
}

// LoanDocument is a loan as stored in the loans collection
type LoanDocument struct {
	ID         string `json:"id" bson:"id" validate:"required"`
	BookID     string `json:"bookId" bson:"bookId" validate:"required"`
	StudentID  string `json:"studentId" bson:"studentId" validate:"required"`
	LoanDate   string `json:"loanDate" bson:"loanDate" validate:"required"`
	DueDate    string `json:"dueDate" bson:"dueDate" validate:"required"`
	ReturnDate string `json:"returnDate,omitempty" bson:"returnDate,omitempty"`
	Status     string `json:"status" bson:"status" validate:"required,oneof=Active Returned Overdue"`
}

// NewLoanDocument converts a domain loan
func NewLoanDocument(l domain.Loan) *LoanDocument {
	return &LoanDocument{
		ID:         l.ID,
		BookID:     l.BookID,
		StudentID:  l.StudentID,
		LoanDate:   l.LoanDate,
		DueDate:    l.DueDate,
		ReturnDate: l.ReturnDate,
		Status:     string(l.Status),
	}
}

func (d *LoanDocument) ToDomain() domain.Loan {
	return domain.Loan{
		ID:         d.ID,
		BookID:     d.BookID,
		StudentID:  d.StudentID,
		LoanDate:   d.LoanDate,
		DueDate:    d.DueDate,
		ReturnDate: d.ReturnDate,
		Status:     domain.LoanStatus(d.Status),
	}
}

// FeedbackDocument is a librarian's suggestion or bug report
type FeedbackDocument struct {
	ID        string `json:"id" bson:"id"`
	Type      string `json:"type" bson:"type" validate:"required,oneof=feedback bug"`
	Message   string `json:"message" bson:"message" validate:"required"`
	CreatedAt string `json:"createdAt" bson:"createdAt"`
}

// ============================================================
// Document <-> struct helpers
// ============================================================

// Decode fills out from a raw collection document
func Decode(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// Encode turns a document struct into a raw collection document
func Encode(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}
