package services

import (
	"context"
	"sort"
	"time"

	"emaihl-library/internal/core/domain"
)

// LeaderboardSize is the number of students on the dashboard leaderboard
const LeaderboardSize = 5

// RecentLoanCount is the number of loans shown in the dashboard activity list
const RecentLoanCount = 5

// DashboardService computes dashboard aggregates from the library snapshot
type DashboardService struct {
	library Library
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(library Library) *DashboardService {
	return &DashboardService{library: library}
}

// ============================================================
// Dashboard
// ============================================================

// DashboardData represents dashboard data
type DashboardData struct {
	// Totals
	TotalBooks    int `json:"totalBooks"`
	TotalStudents int `json:"totalStudents"`
	ActiveLoans   int `json:"activeLoans"`
	OverdueLoans  int `json:"overdueLoans"`

	// Top readers
	Leaderboard []ReaderStats `json:"leaderboard"`

	// Loans per month of the current year
	Year    int            `json:"year"`
	Monthly []MonthlyCount `json:"monthly"`

	// Recent activity
	RecentLoans []LoanRow `json:"-"`
}

// ReaderStats represents one leaderboard entry
type ReaderStats struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

// MonthlyCount represents loans started in one month
type MonthlyCount struct {
	Month int `json:"month"`
	Count int `json:"count"`
}

// GetDashboard returns dashboard data for the current snapshot
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	if s.library.Phase() != PhaseReady {
		return nil, ErrNotReady
	}

	snap := s.library.Snapshot()
	now := s.library.Now()

	rows := LoanRows(snap, now)
	if len(rows) > RecentLoanCount {
		rows = rows[:RecentLoanCount]
	}

	return &DashboardData{
		TotalBooks:    len(snap.Books),
		TotalStudents: len(snap.Students),
		ActiveLoans:   CountActive(snap.Loans),
		OverdueLoans:  CountOverdue(snap.Loans, now),
		Leaderboard:   Leaderboard(snap.Loans, snap.Students, LeaderboardSize),
		Year:          now.Year(),
		Monthly:       MonthlyHistogram(snap.Loans, now),
		RecentLoans:   rows,
	}, nil
}

// ============================================================
// Aggregates
// ============================================================

// CountActive counts loans that have not been returned
func CountActive(loans []domain.Loan) int {
	n := 0
	for _, l := range loans {
		if l.IsActive() {
			n++
		}
	}
	return n
}

// CountOverdue counts active loans whose due date is strictly before now
func CountOverdue(loans []domain.Loan, now time.Time) int {
	n := 0
	for _, l := range loans {
		if l.IsOverdue(now) {
			n++
		}
	}
	return n
}

// Overdue returns the active loans whose due date is strictly before now
func Overdue(loans []domain.Loan, now time.Time) []domain.Loan {
	out := make([]domain.Loan, 0)
	for _, l := range loans {
		if l.IsOverdue(now) {
			out = append(out, l)
		}
	}
	return out
}

// Leaderboard ranks students by loan count, highest first.
// Ties keep the order in which the students first appear in loans.
func Leaderboard(loans []domain.Loan, students []domain.Student, size int) []ReaderStats {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	index := make(map[string]int)
	stats := make([]ReaderStats, 0)
	for _, l := range loans {
		i, ok := index[l.StudentID]
		if !ok {
			name, known := names[l.StudentID]
			if !known {
				name = UnknownStudent
			}
			i = len(stats)
			index[l.StudentID] = i
			stats = append(stats, ReaderStats{StudentID: l.StudentID, Name: name})
		}
		stats[i].Count++
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	if len(stats) > size {
		stats = stats[:size]
	}
	return stats
}

// MonthlyHistogram counts loans by loan month for the calendar year of now.
// Loans with an unparseable loan date are skipped.
func MonthlyHistogram(loans []domain.Loan, now time.Time) []MonthlyCount {
	buckets := make([]MonthlyCount, 12)
	for i := range buckets {
		buckets[i].Month = i + 1
	}

	for _, l := range loans {
		d, err := domain.ParseDate(l.LoanDate, now.Location())
		if err != nil || d.Year() != now.Year() {
			continue
		}
		buckets[d.Month()-1].Count++
	}
	return buckets
}
