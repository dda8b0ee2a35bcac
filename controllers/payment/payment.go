package paymentController

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/models"
	"shams/services/payment"
	"shams/utils/logger"
	"shams/validators"
	paymentValidator "shams/validators/payment"
)

type Controller struct {
	payments *payment.Service
	log      *logger.Logger
}

func New(payments *payment.Service, baseLog *logger.Logger) *Controller {
	return &Controller{payments: payments, log: baseLog.With("controller", "payment")}
}

func (h *Controller) Initiate(c *fiber.Ctx) error {
	reqData := c.Locals("validatedInitiate").(*paymentValidator.InitiateRequest)
	out, err := h.payments.Initiate(c.UserContext(), middleware.UserID(c), payment.InitiateInput{
		PaymentType: models.PaymentType(reqData.PaymentType),
		CourseID:    reqData.CourseID,
		BookID:      reqData.BookID,
		Provider:    reqData.Provider,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Payment initiated successfully!", out)
}

func (h *Controller) Webhook(c *fiber.Ctx) error {
	reqData := c.Locals("validatedWebhook").(*paymentValidator.WebhookRequest)
	raw := map[string]interface{}{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		raw = map[string]interface{}{"status": reqData.Status, "provider_transaction_id": reqData.ProviderTransactionID}
	}
	out, err := h.payments.Webhook(c.UserContext(), payment.WebhookInput{
		PaymentID:             validators.ID(c, "paymentID"),
		Status:                reqData.Status,
		ProviderTransactionID: reqData.ProviderTransactionID,
		Raw:                   raw,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Webhook processed", out)
}

func (h *Controller) Verify(c *fiber.Ctx) error {
	out, err := h.payments.Verify(c.UserContext(), middleware.UserID(c), validators.ID(c, "paymentID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment status: "+string(out.Status), out)
}

func (h *Controller) History(c *fiber.Ctx) error {
	out, err := h.payments.History(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payments fetched successfully!", out)
}

type paymentDetail struct {
	*models.Payment
	Logs []models.PaymentLog `json:"logs"`
}

func (h *Controller) Detail(c *fiber.Ctx) error {
	p, err := h.payments.Detail(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), validators.ID(c, "paymentID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	logs, err := h.payments.Logs(c.UserContext(), p.ID)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment fetched successfully!", paymentDetail{Payment: p, Logs: logs})
}
