package config

import (
	"context"
	"fmt"
	"time"

	"emaihl-library/internal/adapters/persistence/repositories"
	"emaihl-library/internal/core/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeder loads sample books and students into an empty library
type Seeder struct {
	repo   repositories.LibraryRepository
	logger *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(repo repositories.LibraryRepository, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, logger: logger}
}

// Run executes all seeders. Collections that already hold data, or could not be read, are left alone.
func (s *Seeder) Run(ctx context.Context) error {
	s.logger.Info("🌱 Running sample data seeders...")

	if err := s.seedBooks(ctx); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	if err := s.seedStudents(ctx); err != nil {
		return fmt.Errorf("seed students: %w", err)
	}

	s.logger.Info("✅ Sample data seeding completed")
	return nil
}

func (s *Seeder) seedBooks(ctx context.Context) error {
	existing, err := s.repo.GetBooks(ctx)
	if repositories.IsDegradedRead(err) {
		return fmt.Errorf("books could not be read, skipping: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	today := domain.FormatDate(time.Now())
	samples := []domain.Book{
		{Title: "Suç ve Ceza", Author: "Fyodor Dostoyevski", ISBN: "9789750719387", Category: "Novel", Publisher: "İş Bankası", PageCount: 687},
		{Title: "Kürk Mantolu Madonna", Author: "Sabahattin Ali", ISBN: "9789753638029", Category: "Novel", Publisher: "YKY", PageCount: 160},
		{Title: "Simyacı", Author: "Paulo Coelho", ISBN: "9789750726439", Category: "Novel", Publisher: "Can", PageCount: 188},
		{Title: "Kısa Türkçe Dilbilgisi", Author: "Unknown", ISBN: "NO-ISBN", Category: "Reference", Publisher: "-", PageCount: 0},
	}
	for _, b := range samples {
		b.ID = uuid.Must(uuid.NewV7()).String()
		b.AddedDate = today
		b.Status = domain.BookAvailable
		if err := s.repo.SaveBook(ctx, b); err != nil {
			return err
		}
	}

	s.logger.Info("✅ Sample books created", zap.Int("count", len(samples)))
	return nil
}

func (s *Seeder) seedStudents(ctx context.Context) error {
	existing, err := s.repo.GetStudents(ctx)
	if repositories.IsDegradedRead(err) {
		return fmt.Errorf("students could not be read, skipping: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	samples := []domain.Student{
		{Name: "Ali Veli", StudentNumber: "1001", Grade: "9-A"},
		{Name: "Aliye Yılmaz", StudentNumber: "1002", Grade: "10-B"},
		{Name: "Kezban Demir", StudentNumber: "1003", Grade: "9-A"},
	}
	for _, st := range samples {
		st.ID = uuid.Must(uuid.NewV7()).String()
		if err := s.repo.SaveStudent(ctx, st); err != nil {
			return err
		}
	}

	s.logger.Info("✅ Sample students created", zap.Int("count", len(samples)))
	return nil
}
