package services

import (
	"context"
	"time"

	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Staff Dashboard
// ============================================================

// StaffDashboardData represents the librarian/admin overview
type StaffDashboardData struct {
	// Account Statistics
	TotalAccounts  int64 `json:"total_accounts"`
	ActiveAccounts int64 `json:"active_accounts"`
	TotalStaff     int64 `json:"total_staff"`

	// Catalog Statistics
	TotalTitles   int64 `json:"total_titles"`
	CopiesOnShelf int64 `json:"copies_on_shelf"`
	OutOfStock    int64 `json:"out_of_stock"`

	// Borrowing Statistics
	ByStatus            map[domain.BorrowingStatus]int64 `json:"by_status"`
	CopiesOut           int64                            `json:"copies_out"`
	BorrowingsThisMonth int64                            `json:"borrowings_this_month"`

	// Top Borrowers
	TopBorrowers []BorrowerStats `json:"top_borrowers"`
}

// BorrowerStats represents borrowing activity of one account
type BorrowerStats struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Total  int64  `json:"total"`
}

// GetStaffDashboard returns staff dashboard data. Statuses are the stored
// ones; records not read since their due date may still show as received.
func (s *DashboardService) GetStaffDashboard(ctx context.Context) (*StaffDashboardData, error) {
	db := s.db.WithContext(ctx)
	data := &StaffDashboardData{ByStatus: map[domain.BorrowingStatus]int64{}}

	// Account counts
	if err := db.Table("accounts").Count(&data.TotalAccounts).Error; err != nil {
		return nil, err
	}
	db.Table("accounts").Where("status = ?", domain.AccountActive).Count(&data.ActiveAccounts)
	db.Table("accounts").Where("role IN ?", []domain.Role{domain.RoleLibrarian, domain.RoleAdmin}).Count(&data.TotalStaff)

	// Catalog
	db.Table("books").Count(&data.TotalTitles)
	db.Table("books").Select("COALESCE(SUM(quantity), 0)").Scan(&data.CopiesOnShelf)
	db.Table("books").Where("quantity = 0").Count(&data.OutOfStock)

	// Borrowings by status
	var rows []struct {
		Status domain.BorrowingStatus
		Total  int64
		Copies int64
	}
	if err := db.Table("borrowings").
		Select("status, COUNT(*) AS total, COALESCE(SUM(quantity), 0) AS copies").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		data.ByStatus[r.Status] = r.Total
		if r.Status.HoldsCopies() {
			data.CopiesOut += r.Copies
		}
	}

	// This month
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	db.Table("borrowings").Where("created_at >= ?", startOfMonth).Count(&data.BorrowingsThisMonth)

	// Top borrowers
	if err := db.Table("borrowings").
		Select("borrowings.user_id, accounts.email, COUNT(*) AS total").
		Joins("LEFT JOIN accounts ON borrowings.user_id = accounts.id").
		Group("borrowings.user_id, accounts.email").
		Order("total DESC").
		Limit(5).
		Scan(&data.TopBorrowers).Error; err != nil {
		return nil, err
	}

	return data, nil
}
