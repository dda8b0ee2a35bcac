package models

import (
	"math"
	"time"
)

type BookStatus string

const (
	BookStatusFree       BookStatus = "free"
	BookStatusPaid       BookStatus = "paid"
	BookStatusDiscounted BookStatus = "discounted"
)

// MaxDownloadsPerBook caps how many times one user may download one book.
const MaxDownloadsPerBook = 3

type Book struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Author        string     `gorm:"type:varchar(255);not null" json:"author"`
	Description   string     `gorm:"type:text" json:"description"`
	Category      string     `gorm:"type:varchar(20);index" json:"category"`
	FileURL       string     `gorm:"not null" json:"-"`
	PreviewURL    string     `json:"preview_url"`
	Status        BookStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Price         float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount      float64    `gorm:"type:decimal(5,2);not null" json:"discount"` // percent
	UploadedByID  uint       `gorm:"index" json:"uploaded_by_id"`
	DownloadCount int        `gorm:"not null" json:"download_count"`
	IsActive      bool       `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FinalPrice is what a buyer pays right now, rounded to cents.
func (b *Book) FinalPrice() float64 {
	switch b.Status {
	case BookStatusFree:
		return 0
	case BookStatusDiscounted:
		return roundCents(b.Price * (1 - b.Discount/100))
	default:
		return roundCents(b.Price)
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// BookPurchase freezes the price paid at purchase time.
type BookPurchase struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_purchase_user_book" json:"user_id"`
	BookID        uint      `gorm:"not null;uniqueIndex:idx_purchase_user_book;index" json:"book_id"`
	PaidAmount    float64   `gorm:"type:decimal(10,2);not null" json:"paid_amount"`
	PaymentMethod string    `gorm:"type:varchar(20);not null" json:"payment_method"`
	TransactionID string    `gorm:"type:varchar(255);not null" json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

// BookDownload is keyed by (user, book, ip); Times counts repeats from the
// same address.
type BookDownload struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_download_user_book_ip" json:"user_id"`
	BookID       uint      `gorm:"not null;uniqueIndex:idx_download_user_book_ip;index" json:"book_id"`
	IPAddress    string    `gorm:"type:varchar(45);not null;uniqueIndex:idx_download_user_book_ip" json:"ip_address"`
	Times        int       `gorm:"not null" json:"times"`
	DownloadedAt time.Time `json:"downloaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
