// Package payment runs checkouts against a gateway and grants course or book
// access once a payment completes.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shams/apperr"
	"shams/models"
	"shams/repository"
	"shams/services/activity"
	"shams/services/notification"
	"shams/utils/logger"
	"shams/utils/mailer"
)

// Enroller grants course access inside the caller's transaction and reports
// whether a new enrollment was created.
type Enroller interface {
	GrantEnrollment(ctx context.Context, tx *gorm.DB, userID, courseID uint) (bool, error)
}

type Service struct {
	db       *gorm.DB
	repos    *repository.Repos
	enroller Enroller
	notify   *notification.Service
	gateway  Gateway
	activity *activity.Recorder
	now      func() time.Time
	log      *logger.Logger
}

func NewService(repos *repository.Repos, enroller Enroller, notify *notification.Service, gateway Gateway, baseLog *logger.Logger) *Service {
	return &Service{
		db:       repos.DB,
		repos:    repos,
		enroller: enroller,
		notify:   notify,
		gateway:  gateway,
		activity: activity.NewRecorder(repos.Activities),
		now:      func() time.Time { return time.Now().UTC() },
		log:      baseLog.With("service", "PaymentService"),
	}
}

type InitiateInput struct {
	PaymentType models.PaymentType
	CourseID    uint
	BookID      uint
	Provider    string
}

type target struct {
	title  string
	amount float64
}

func validProvider(p string) bool {
	switch p {
	case models.ProviderPayme, models.ProviderClick, models.ProviderUzum:
		return true
	}
	return false
}

func (s *Service) resolveTarget(ctx context.Context, userID uint, in InitiateInput) (*target, error) {
	switch in.PaymentType {
	case models.PaymentTypeCourse:
		if in.CourseID == 0 {
			return nil, apperr.ValidationFields("Validation failed!", map[string]string{"course_id": "required for course payments"})
		}
		c, err := s.repos.Courses.GetByID(ctx, nil, in.CourseID)
		if err != nil {
			return nil, apperr.Internal("load course", err)
		}
		if c == nil || !c.IsActive {
			return nil, apperr.NotFound("Course not found")
		}
		if c.Price <= 0 {
			return nil, apperr.Validation("This course is free, enroll directly")
		}
		e, err := s.repos.Enrollments.GetByUserCourse(ctx, nil, userID, c.ID)
		if err != nil {
			return nil, apperr.Internal("load enrollment", err)
		}
		if e != nil {
			return nil, apperr.Conflict("You are already enrolled in this course")
		}
		return &target{title: c.Title, amount: c.Price}, nil

	case models.PaymentTypeBook:
		if in.BookID == 0 {
			return nil, apperr.ValidationFields("Validation failed!", map[string]string{"book_id": "required for book payments"})
		}
		b, err := s.repos.Books.GetByID(ctx, nil, in.BookID)
		if err != nil {
			return nil, apperr.Internal("load book", err)
		}
		if b == nil || !b.IsActive {
			return nil, apperr.NotFound("Book not found")
		}
		if b.FinalPrice() <= 0 {
			return nil, apperr.Validation("This book is free")
		}
		owned, err := s.repos.Purchases.Exists(ctx, nil, userID, b.ID)
		if err != nil {
			return nil, apperr.Internal("load purchase", err)
		}
		if owned {
			return nil, apperr.Conflict("You have already purchased this book")
		}
		return &target{title: b.Title, amount: b.FinalPrice()}, nil
	}
	return nil, apperr.ValidationFields("Validation failed!", map[string]string{"payment_type": "must be course or book"})
}

func jsonData(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

// Initiate creates a pending payment and asks the gateway for a checkout.
func (s *Service) Initiate(ctx context.Context, userID uint, in InitiateInput) (*models.Payment, error) {
	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))
	if !validProvider(in.Provider) {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"provider": "must be one of payme, click, uzum"})
	}
	t, err := s.resolveTarget(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		UserID:      userID,
		PaymentType: in.PaymentType,
		Amount:      t.amount,
		Provider:    in.Provider,
		Status:      models.PaymentStatusPending,
	}
	if in.PaymentType == models.PaymentTypeCourse {
		p.CourseID = &in.CourseID
	} else {
		p.BookID = &in.BookID
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.Payments.Create(ctx, tx, p); err != nil {
			return apperr.Internal("create payment", err)
		}
		return s.repos.Payments.AddLog(ctx, tx, p.ID, models.PaymentActionInitiate, jsonData(map[string]interface{}{
			"payment_type": p.PaymentType,
			"amount":       p.Amount,
			"provider":     p.Provider,
			"title":        t.title,
		}))
	})
	if err != nil {
		return nil, err
	}

	checkout, gwErr := s.gateway.CreateCheckout(ctx, p, t.title)
	if gwErr != nil {
		s.log.Error("Checkout failed", "payment_id", p.ID, "error", gwErr)
		if _, err := s.repos.Payments.Transition(ctx, nil, p.ID, models.PaymentStatusFailed, s.now()); err != nil {
			s.log.Error("Failed to mark payment failed", "payment_id", p.ID, "error", err)
		}
		if err := s.repos.Payments.AddLog(ctx, nil, p.ID, models.PaymentActionInitiate, jsonData(map[string]string{"error": gwErr.Error()})); err != nil {
			s.log.Error("Failed to log checkout failure", "payment_id", p.ID, "error", err)
		}
		return nil, apperr.Unavailable("Payment provider is unavailable, please try again later", gwErr)
	}
	if err := s.repos.Payments.SetCheckout(ctx, nil, p.ID, checkout.TransactionID, checkout.CheckoutURL); err != nil {
		if repository.IsDuplicate(err) {
			return nil, apperr.Conflict("Provider transaction is already attached to another payment")
		}
		return nil, apperr.Internal("save checkout", err)
	}
	s.log.Info("Payment initiated", "payment_id", p.ID, "user_id", userID, "amount", p.Amount)
	return s.load(ctx, p.ID)
}

func (s *Service) load(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.repos.Payments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("load payment", err)
	}
	if p == nil {
		return nil, apperr.NotFound("Payment not found")
	}
	return p, nil
}

type WebhookInput struct {
	PaymentID             uint
	Status                string
	ProviderTransactionID string
	Raw                   map[string]interface{}
}

// Webhook applies a provider callback. Every delivery is logged; only the
// first terminal status reaching a pending payment has side effects.
func (s *Service) Webhook(ctx context.Context, in WebhookInput) (*models.Payment, error) {
	p, err := s.load(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	raw := in.Raw
	if raw == nil {
		raw = map[string]interface{}{"status": in.Status, "provider_transaction_id": in.ProviderTransactionID}
	}
	if err := s.repos.Payments.AddLog(ctx, nil, p.ID, models.PaymentActionWebhook, jsonData(raw)); err != nil {
		return nil, apperr.Internal("log webhook", err)
	}

	status, ok := ParseStatus(in.Status)
	if !ok {
		return nil, apperr.ValidationFields("Validation failed!", map[string]string{"status": "must be one of pending, completed, failed, cancelled"})
	}
	if txn := strings.TrimSpace(in.ProviderTransactionID); txn != "" {
		if p.ProviderTransactionID != nil && *p.ProviderTransactionID != txn {
			return nil, apperr.Conflict("Provider transaction id does not match this payment")
		}
		if p.ProviderTransactionID == nil {
			if err := s.repos.Payments.SetProviderTransaction(ctx, nil, p.ID, txn); err != nil {
				if repository.IsDuplicate(err) {
					return nil, apperr.Conflict("Provider transaction is already attached to another payment")
				}
				return nil, apperr.Internal("save provider transaction", err)
			}
		}
	}
	if status == models.PaymentStatusPending {
		return s.load(ctx, p.ID)
	}
	if _, err := s.apply(ctx, p, status); err != nil {
		return nil, err
	}
	return s.load(ctx, p.ID)
}

// Verify asks the gateway for the current status of the caller's payment.
func (s *Service) Verify(ctx context.Context, userID, id uint) (*models.Payment, error) {
	p, err := s.Detail(ctx, userID, false, id)
	if err != nil {
		return nil, err
	}
	if p.Status.IsTerminal() {
		return p, nil
	}
	if p.ProviderTransactionID == nil {
		return nil, apperr.Validation("Payment has not reached the provider yet")
	}
	status, gwErr := s.gateway.Status(ctx, p.Provider, *p.ProviderTransactionID)
	logData := map[string]interface{}{"status": status}
	if gwErr != nil {
		logData["error"] = gwErr.Error()
	}
	if err := s.repos.Payments.AddLog(ctx, nil, p.ID, models.PaymentActionVerify, jsonData(logData)); err != nil {
		return nil, apperr.Internal("log verify", err)
	}
	if gwErr != nil {
		return nil, apperr.Unavailable("Could not verify the payment with the provider", gwErr)
	}
	if status.IsTerminal() {
		if _, err := s.apply(ctx, p, status); err != nil {
			return nil, err
		}
	}
	return s.load(ctx, p.ID)
}

// apply moves the payment out of pending and runs the completion side
// effects in the same transaction. It returns false for repeated deliveries.
func (s *Service) apply(ctx context.Context, p *models.Payment, status models.PaymentStatus) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repos.Payments.Transition(ctx, tx, p.ID, status, s.now())
		if err != nil {
			return apperr.Internal("transition payment", err)
		}
		if !ok {
			return nil
		}
		applied = true
		fresh, err := s.repos.Payments.GetByID(ctx, tx, p.ID)
		if err != nil {
			return apperr.Internal("reload payment", err)
		}
		if status == models.PaymentStatusCompleted {
			return s.complete(ctx, tx, fresh)
		}
		return s.notify.Enqueue(ctx, tx, notification.Event{
			UserID:  fresh.UserID,
			Type:    models.NotificationPayment,
			Title:   "Payment " + string(status),
			Message: fmt.Sprintf("Your payment #%d of %.2f was %s.", fresh.ID, fresh.Amount, status),
			Notify:  true,
			Payload: map[string]interface{}{"payment_id": fresh.ID, "status": status},
		})
	})
	if err != nil {
		return false, err
	}
	if applied {
		s.log.Info("Payment status changed", "payment_id", p.ID, "status", status)
	} else {
		s.log.Debug("Payment already settled, ignoring", "payment_id", p.ID, "status", status)
	}
	return applied, nil
}

func (s *Service) complete(ctx context.Context, tx *gorm.DB, p *models.Payment) error {
	user, err := s.repos.Users.GetByID(ctx, tx, p.UserID)
	if err != nil || user == nil {
		return apperr.Internal("load payer", err)
	}

	var item string
	switch p.PaymentType {
	case models.PaymentTypeCourse:
		c, err := s.repos.Courses.GetByID(ctx, tx, *p.CourseID)
		if err != nil || c == nil {
			return apperr.Internal("load course", err)
		}
		item = c.Title
		if _, err := s.enroller.GrantEnrollment(ctx, tx, p.UserID, c.ID); err != nil {
			return err
		}
	case models.PaymentTypeBook:
		b, err := s.repos.Books.GetByID(ctx, tx, *p.BookID)
		if err != nil || b == nil {
			return apperr.Internal("load book", err)
		}
		item = b.Title
		txn := fmt.Sprintf("PAY_%d", p.ID)
		if p.ProviderTransactionID != nil {
			txn = *p.ProviderTransactionID
		}
		if _, err := s.repos.Purchases.CreateIfAbsent(ctx, tx, &models.BookPurchase{
			UserID:        p.UserID,
			BookID:        b.ID,
			PaidAmount:    p.Amount,
			PaymentMethod: p.Provider,
			TransactionID: txn,
			PaidAt:        s.now(),
		}); err != nil {
			return apperr.Internal("create purchase", err)
		}
	}

	if err := s.activity.Record(ctx, tx, p.UserID, models.ActivityPayment,
		"Payment completed: "+item, fmt.Sprintf("You paid %.2f for %s", p.Amount, item)); err != nil {
		return apperr.Internal("record activity", err)
	}
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	subject, body := mailer.PaymentCompletedEmail(name, item, p.Amount)
	return s.notify.Enqueue(ctx, tx, notification.Event{
		UserID:       p.UserID,
		Type:         models.NotificationPayment,
		Title:        "Payment completed",
		Message:      fmt.Sprintf("Your payment for %s was completed.", item),
		Notify:       true,
		EmailTo:      user.Email,
		EmailSubject: subject,
		EmailBody:    body,
		Payload:      map[string]interface{}{"payment_id": p.ID},
	})
}

func (s *Service) History(ctx context.Context, userID uint) ([]models.Payment, error) {
	out, err := s.repos.Payments.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, apperr.Internal("list payments", err)
	}
	return out, nil
}

// Detail hides other users' payments behind NotFound; staff see all.
func (s *Service) Detail(ctx context.Context, userID uint, isStaff bool, id uint) (*models.Payment, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID && !isStaff {
		return nil, apperr.NotFound("Payment not found")
	}
	return p, nil
}

func (s *Service) Logs(ctx context.Context, id uint) ([]models.PaymentLog, error) {
	out, err := s.repos.Payments.ListLogs(ctx, nil, id)
	if err != nil {
		return nil, apperr.Internal("list payment logs", err)
	}
	return out, nil
}
