package models

import (
	"strings"
	"time"

	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Identity
// ============================================================

// Account represents accounts table (users and employees)
type Account struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	Email            string               `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PhoneNumber      string               `gorm:"size:20" json:"phone_number"`
	PasswordHash     *string              `gorm:"size:255" json:"-"`
	Status           domain.AccountStatus `gorm:"size:20;not null;default:'inactive'" json:"status"`
	Role             domain.Role          `gorm:"size:20;not null;default:'user'" json:"role"`
	RefreshTokenHash *string              `gorm:"size:64" json:"-"`
	FirstName        string               `gorm:"size:100" json:"first_name"`
	LastName         string               `gorm:"size:100" json:"last_name"`
	DOB              *time.Time           `json:"dob"`
	Street           string               `gorm:"size:255" json:"street"`
	Ward             string               `gorm:"size:100" json:"ward"`
	District         string               `gorm:"size:100" json:"district"`
	Province         string               `gorm:"size:100" json:"province"`
	Avatar           string               `gorm:"size:500" json:"avatar"`
	DeactivatedAt    *time.Time           `json:"-"`
	CreatedAt        time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// IsActive reports whether the account may sign in
func (a *Account) IsActive() bool {
	return a.Status == domain.AccountActive
}

// IsDeactivated reports whether an admin deleted the account. Only a restore
// clears it; email verification does not.
func (a *Account) IsDeactivated() bool {
	return a.DeactivatedAt != nil
}

// HasPassword reports whether the password bootstrap is complete
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// HasAddress reports whether a delivery address has been saved
func (a *Account) HasAddress() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.District) != "" &&
		strings.TrimSpace(a.Province) != ""
}

// AccountResponse DTO
type AccountResponse struct {
	ID          uint                 `json:"id"`
	Email       string               `json:"email"`
	PhoneNumber string               `json:"phone_number,omitempty"`
	Status      domain.AccountStatus `json:"status"`
	Role        domain.Role          `json:"role"`
	FirstName   string               `json:"first_name,omitempty"`
	LastName    string               `json:"last_name,omitempty"`
	DOB         *time.Time           `json:"dob,omitempty"`
	Address     *AddressResponse     `json:"address,omitempty"`
	Avatar      string               `json:"avatar,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// AddressResponse DTO
type AddressResponse struct {
	Street   string `json:"street"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`
}

func (a *Account) ToResponse() *AccountResponse {
	resp := &AccountResponse{
		ID:          a.ID,
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
		Status:      a.Status,
		Role:        a.Role,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		DOB:         a.DOB,
		Avatar:      a.Avatar,
		CreatedAt:   a.CreatedAt,
	}
	if a.HasAddress() {
		resp.Address = &AddressResponse{
			Street:   a.Street,
			Ward:     a.Ward,
			District: a.District,
			Province: a.Province,
		}
	}
	return resp
}

// OTPChallenge represents otp_challenges table
type OTPChallenge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;index" json:"email"`
	CodeHash  string    `gorm:"size:255;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OTPChallenge) TableName() string {
	return "otp_challenges"
}

// IsExpired reports whether the challenge can no longer be verified at now
func (o *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// ============================================================
// Catalog
// ============================================================

// Author represents authors table
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Author) TableName() string {
	return "authors"
}

// Publisher represents publishers table
type Publisher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Publisher) TableName() string {
	return "publishers"
}

// Book represents books table. Quantity is the number of copies on the shelf.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Slug            string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Quantity        int       `gorm:"not null;default:0;check:chk_books_quantity,quantity >= 0" json:"quantity"`
	AuthorID        uint      `gorm:"not null;index" json:"author_id"`
	PublisherID     uint      `gorm:"not null;index" json:"publisher_id"`
	PublicationYear int       `json:"publication_year"`
	Description     string    `gorm:"type:text" json:"description"`
	Thumbnail       string    `gorm:"size:500" json:"thumbnail"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Author    *Author    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Publisher *Publisher `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO
type BookResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Quantity        int       `json:"quantity"`
	AuthorID        uint      `json:"author_id"`
	AuthorName      string    `json:"author_name,omitempty"`
	PublisherID     uint      `json:"publisher_id"`
	PublisherName   string    `json:"publisher_name,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Description     string    `json:"description,omitempty"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (b *Book) ToResponse() *BookResponse {
	resp := &BookResponse{
		ID:              b.ID,
		Name:            b.Name,
		Slug:            b.Slug,
		Quantity:        b.Quantity,
		AuthorID:        b.AuthorID,
		PublisherID:     b.PublisherID,
		PublicationYear: b.PublicationYear,
		Description:     b.Description,
		Thumbnail:       b.Thumbnail,
		CreatedAt:       b.CreatedAt,
	}
	if b.Author != nil {
		resp.AuthorName = b.Author.Name
	}
	if b.Publisher != nil {
		resp.PublisherName = b.Publisher.Name
	}
	return resp
}

// ============================================================
// Borrowing ledger
// ============================================================

// Borrowing represents borrowings table. Rows are never deleted.
type Borrowing struct {
	ID         uint                   `gorm:"primaryKey" json:"id"`
	UserID     uint                   `gorm:"not null;index:idx_borrowings_user_book" json:"user_id"`
	BookID     uint                   `gorm:"not null;index:idx_borrowings_user_book" json:"book_id"`
	Quantity   int                    `gorm:"not null" json:"quantity"`
	BorrowDate time.Time              `gorm:"not null" json:"borrow_date"`
	DueDate    time.Time              `gorm:"not null" json:"due_date"`
	Status     domain.BorrowingStatus `gorm:"size:20;not null;index;default:'pending'" json:"status"`
	AcceptedBy *uint                  `json:"accepted_by"`
	Version    uint                   `gorm:"not null;default:0" json:"-"`
	CreatedAt  time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time              `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User     *Account `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book     *Book    `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Accepter *Account `gorm:"foreignKey:AcceptedBy" json:"accepter,omitempty"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

// BorrowingResponse DTO
type BorrowingResponse struct {
	ID         uint                   `json:"id"`
	UserID     uint                   `json:"user_id"`
	UserEmail  string                 `json:"user_email,omitempty"`
	BookID     uint                   `json:"book_id"`
	BookName   string                 `json:"book_name,omitempty"`
	BookSlug   string                 `json:"book_slug,omitempty"`
	Quantity   int                    `json:"quantity"`
	BorrowDate time.Time              `json:"borrow_date"`
	DueDate    time.Time              `json:"due_date"`
	Status     domain.BorrowingStatus `json:"status"`
	AcceptedBy *uint                  `json:"accepted_by,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

func (b *Borrowing) ToResponse() *BorrowingResponse {
	resp := &BorrowingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		BookID:     b.BookID,
		Quantity:   b.Quantity,
		BorrowDate: b.BorrowDate,
		DueDate:    b.DueDate,
		Status:     b.Status,
		AcceptedBy: b.AcceptedBy,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if b.User != nil {
		resp.UserEmail = b.User.Email
	}
	if b.Book != nil {
		resp.BookName = b.Book.Name
		resp.BookSlug = b.Book.Slug
	}
	return resp
}

// BorrowingEvent is the audit row written with every status change
type BorrowingEvent struct {
	ID            uint                   `gorm:"primaryKey" json:"id"`
	BorrowingID   uint                   `gorm:"not null;index" json:"borrowing_id"`
	Action        domain.Action          `gorm:"size:20;not null" json:"action"`
	FromStatus    domain.BorrowingStatus `gorm:"size:20" json:"from_status"`
	ToStatus      domain.BorrowingStatus `gorm:"size:20;not null" json:"to_status"`
	QuantityDelta int                    `gorm:"not null;default:0" json:"quantity_delta"`
	PerformedBy   *uint                  `json:"performed_by"`
	Note          string                 `gorm:"type:text" json:"note"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

func (BorrowingEvent) TableName() string {
	return "borrowing_events"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&OTPChallenge{},
		&Author{},
		&Publisher{},
		&Book{},
		&Borrowing{},
		&BorrowingEvent{},
	)
}
