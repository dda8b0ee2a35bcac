// Package library sells and serves downloadable books.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/services/activity"
	"shams/utils/logger"
)

type Service struct {
	db       *gorm.DB
	repos    *repository.Repos
	activity *activity.Recorder
	now      func() time.Time
	log      *logger.Logger
}

func NewService(repos *repository.Repos, baseLog *logger.Logger) *Service {
	return &Service{
		db:       repos.DB,
		repos:    repos,
		activity: activity.NewRecorder(repos.Activities),
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "LibraryService"),
	}
}

type BookView struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Author           string            `json:"author"`
	Description      string            `json:"description"`
	Category         string            `json:"category"`
	PreviewURL       string            `json:"preview_url"`
	Status           models.BookStatus `json:"status"`
	Price            float64           `json:"price"`
	Discount         float64           `json:"discount"`
	FinalPrice       float64           `json:"final_price"`
	DownloadCount    int               `json:"download_count"`
	IsActive         bool              `json:"is_active"`
	CreatedAt        time.Time         `json:"created_at"`
	IsPurchased      bool              `json:"is_purchased"`
	PurchaseRequired bool              `json:"purchase_required"`
	FileURL          string            `json:"file_url,omitempty"`
}

func toBookView(b models.Book, owned bool) BookView {
	return BookView{
		ID:               b.ID,
		Title:            b.Title,
		Author:           b.Author,
		Description:      b.Description,
		Category:         b.Category,
		PreviewURL:       b.PreviewURL,
		Status:           b.Status,
		Price:            b.Price,
		Discount:         b.Discount,
		FinalPrice:       b.FinalPrice(),
		DownloadCount:    b.DownloadCount,
		IsActive:         b.IsActive,
		CreatedAt:        b.CreatedAt,
		IsPurchased:      owned,
		PurchaseRequired: b.Status != models.BookStatusFree && !owned,
	}
}

func (s *Service) ListBooks(ctx context.Context, viewerID uint, isStaff bool, filter repository.BookFilter) ([]BookView, error) {
	filter.ActiveOnly = !isStaff
	books, err := s.repos.Books.List(ctx, nil, filter)
	if err != nil {
		return nil, apperr.Internal("list books", err)
	}
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	owned, err := s.repos.Purchases.OwnedSet(ctx, nil, viewerID, ids)
	if err != nil {
		return nil, apperr.Internal("load purchases", err)
	}
	out := make([]BookView, 0, len(books))
	for _, b := range books {
		out = append(out, toBookView(b, owned[b.ID]))
	}
	return out, nil
}

func (s *Service) loadBook(ctx context.Context, id uint, isStaff bool) (*models.Book, error) {
	b, err := s.repos.Books.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load book", err)
	}
	if b == nil || (!b.IsActive && !isStaff) {
		return nil, apperr.NotFound("Book not found")
	}
	return b, nil
}

// GetBook exposes the file URL only to viewers entitled to download it.
func (s *Service) GetBook(ctx context.Context, viewerID uint, isStaff bool, id uint) (*BookView, error) {
	b, err := s.loadBook(ctx, id, isStaff)
	if err != nil {
		return nil, err
	}
	owned := false
	if viewerID != 0 {
		if owned, err = s.repos.Purchases.Exists(ctx, nil, viewerID, b.ID); err != nil {
			return nil, apperr.Internal("load purchase", err)
		}
	}
	v := toBookView(*b, owned)
	if viewerID != 0 && (b.Status == models.BookStatusFree || owned || isStaff) {
		v.FileURL = b.FileURL
	}
	return &v, nil
}

// MyBooks lists free books together with the ones the user bought.
func (s *Service) MyBooks(ctx context.Context, userID uint) ([]BookView, error) {
	books, err := s.repos.Books.ListOwned(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("list owned books", err)
	}
	ids := make([]uint, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	owned, err := s.repos.Purchases.OwnedSet(ctx, nil, userID, ids)
	if err != nil {
		return nil, apperr.Internal("load purchases", err)
	}
	out := make([]BookView, 0, len(books))
	for _, b := range books {
		out = append(out, toBookView(b, owned[b.ID]))
	}
	return out, nil
}

type BookInput struct {
	Title       string
	Author      string
	Description string
	Category    string
	FileURL     string
	PreviewURL  string
	Status      models.BookStatus
	Price       float64
	Discount    float64
	IsActive    bool
}

func validatePricing(status models.BookStatus, price, discount float64) error {
	fields := map[string]string{}
	switch status {
	case models.BookStatusFree, models.BookStatusPaid, models.BookStatusDiscounted:
	default:
		fields["status"] = "must be one of free, paid, discounted"
	}
	if price < 0 {
		fields["price"] = "must be >= 0"
	}
	if discount < 0 || discount > 100 {
		fields["discount"] = "must be between 0 and 100"
	}
	if len(fields) > 0 {
		return apperr.ValidationFields("Validation failed!", fields)
	}
	return nil
}

func (s *Service) CreateBook(ctx context.Context, staffID uint, in BookInput) (*models.Book, error) {
	if err := validatePricing(in.Status, in.Price, in.Discount); err != nil {
		return nil, err
	}
	b := &models.Book{
		Title:        strings.TrimSpace(in.Title),
		Author:       strings.TrimSpace(in.Author),
		Description:  in.Description,
		Category:     in.Category,
		FileURL:      in.FileURL,
		PreviewURL:   in.PreviewURL,
		Status:       in.Status,
		Price:        in.Price,
		Discount:     in.Discount,
		UploadedByID: staffID,
		IsActive:     in.IsActive,
	}
	if err := s.repos.Books.Create(ctx, nil, b); err != nil {
		return nil, apperr.Internal("create book", err)
	}
	s.log.Info("Book created", "book_id", b.ID, "staff_id", staffID)
	return b, nil
}

type BookUpdate struct {
	Title       *string
	Author      *string
	Description *string
	Category    *string
	FileURL     *string
	PreviewURL  *string
	Status      *models.BookStatus
	Price       *float64
	Discount    *float64
	IsActive    *bool
}

func (s *Service) UpdateBook(ctx context.Context, id uint, in BookUpdate) (*models.Book, error) {
	b, err := s.loadBook(ctx, id, true)
	if err != nil {
		return nil, err
	}
	status, price, discount := b.Status, b.Price, b.Discount
	fields := map[string]interface{}{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Author != nil {
		fields["author"] = strings.TrimSpace(*in.Author)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.FileURL != nil {
		fields["file_url"] = *in.FileURL
	}
	if in.PreviewURL != nil {
		fields["preview_url"] = *in.PreviewURL
	}
	if in.Status != nil {
		status = *in.Status
		fields["status"] = status
	}
	if in.Price != nil {
		price = *in.Price
		fields["price"] = price
	}
	if in.Discount != nil {
		discount = *in.Discount
		fields["discount"] = discount
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if err := validatePricing(status, price, discount); err != nil {
		return nil, err
	}
	if err := s.repos.Books.Update(ctx, nil, id, fields); err != nil {
		return nil, apperr.Internal("update book", err)
	}
	return s.loadBook(ctx, id, true)
}

func (s *Service) DeleteBook(ctx context.Context, id uint) error {
	if _, err := s.loadBook(ctx, id, true); err != nil {
		return err
	}
	if err := s.repos.Books.Delete(ctx, nil, id); err != nil {
		return apperr.Internal("delete book", err)
	}
	return nil
}

// NewTransactionID returns "TRX_" followed by 8 hex characters.
func NewTransactionID() string {
	return "TRX_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func validMethod(method string) bool {
	switch method {
	case models.ProviderPayme, models.ProviderClick, models.ProviderUzum:
		return true
	}
	return false
}

type PurchaseResult struct {
	Purchase models.BookPurchase `json:"purchase"`
	FileURL  string              `json:"file_url"`
}

// Purchase records a direct purchase at the current final price.
func (s *Service) Purchase(ctx context.Context, userID, bookID uint, method string) (*PurchaseResult, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if !validMethod(method) {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"method": "must be one of payme, click, uzum"})
	}
	b, err := s.loadBook(ctx, bookID, false)
	if err != nil {
		return nil, err
	}
	p := &models.BookPurchase{
		UserID:        userID,
		BookID:        b.ID,
		PaidAmount:    b.FinalPrice(),
		PaymentMethod: method,
		TransactionID: NewTransactionID(),
		PaidAt:        s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.repos.Purchases.CreateIfAbsent(ctx, tx, p)
		if err != nil {
			return apperr.Internal("create purchase", err)
		}
		if !created {
			return apperr.Conflict("You have already purchased this book")
		}
		return s.activity.Record(ctx, tx, userID, models.ActivityBook,
			"Book purchased: "+b.Title, fmt.Sprintf("You purchased %s for %.2f", b.Title, p.PaidAmount))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Book purchased", "user_id", userID, "book_id", b.ID, "amount", p.PaidAmount)
	return &PurchaseResult{Purchase: *p, FileURL: b.FileURL}, nil
}

type DownloadResult struct {
	FileURL   string `json:"file_url"`
	Remaining int    `json:"remaining"`
}

// Download enforces entitlement and the per-user cap of
// models.MaxDownloadsPerBook, counted across all addresses.
func (s *Service) Download(ctx context.Context, userID, bookID uint, ip string) (*DownloadResult, error) {
	b, err := s.loadBook(ctx, bookID, false)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BookStatusFree {
		owned, err := s.repos.Purchases.Exists(ctx, nil, userID, b.ID)
		if err != nil {
			return nil, apperr.Internal("load purchase", err)
		}
		if !owned {
			return nil, apperr.Forbidden("You need to purchase this book first")
		}
	}
	if ip == "" {
		ip = "unknown"
	}

	var used int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// concurrent downloads by the same user queue on this row lock, so the
		// sum below cannot be read stale by two transactions
		u, err := s.repos.Users.LockByID(ctx, tx, userID)
		if err != nil {
			return apperr.Internal("lock user", err)
		}
		if u == nil {
			return apperr.Unauthorized("User not found")
		}
		if used, err = s.repos.Downloads.TotalTimes(ctx, tx, userID, b.ID); err != nil {
			return apperr.Internal("count downloads", err)
		}
		if used >= models.MaxDownloadsPerBook {
			return apperr.Validation("You have reached the download limit for this book")
		}
		if err := s.repos.Downloads.Record(ctx, tx, userID, b.ID, ip, s.now()); err != nil {
			return apperr.Internal("record download", err)
		}
		if err := s.repos.Books.IncrementDownloadCount(ctx, tx, b.ID); err != nil {
			return apperr.Internal("increment download count", err)
		}
		return s.activity.Record(ctx, tx, userID, models.ActivityBook,
			"Book downloaded: "+b.Title, "You downloaded "+b.Title)
	})
	if err != nil {
		return nil, err
	}
	return &DownloadResult{FileURL: b.FileURL, Remaining: models.MaxDownloadsPerBook - int(used) - 1}, nil
}
