package libraryController

import (
	"github.com/gofiber/fiber/v2"

	"shams/middleware"
	"shams/models"
	"shams/repository"
	"shams/services/library"
	"shams/utils/logger"
	"shams/validators"
	libraryValidator "shams/validators/library"
)

type Controller struct {
	books *library.Service
	log   *logger.Logger
}

func New(books *library.Service, baseLog *logger.Logger) *Controller {
	return &Controller{books: books, log: baseLog.With("controller", "library")}
}

func (h *Controller) ListBooks(c *fiber.Ctx) error {
	q := c.Locals("validatedBookList").(*libraryValidator.BookListQuery)
	out, err := h.books.ListBooks(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), repository.BookFilter{
		Category: q.Category,
		Status:   q.Status,
		Search:   q.Search,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Books fetched successfully!", out)
}

func (h *Controller) GetBook(c *fiber.Ctx) error {
	out, err := h.books.GetBook(c.UserContext(), middleware.UserID(c), middleware.IsStaff(c), validators.ID(c, "bookID"))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Book fetched successfully!", out)
}

func (h *Controller) MyBooks(c *fiber.Ctx) error {
	out, err := h.books.MyBooks(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Books fetched successfully!", out)
}

func (h *Controller) CreateBook(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBook").(*libraryValidator.BookRequest)
	active := true
	if reqData.IsActive != nil {
		active = *reqData.IsActive
	}
	out, err := h.books.CreateBook(c.UserContext(), middleware.UserID(c), library.BookInput{
		Title:       reqData.Title,
		Author:      reqData.Author,
		Description: reqData.Description,
		Category:    reqData.Category,
		FileURL:     reqData.FileURL,
		PreviewURL:  reqData.PreviewURL,
		Status:      models.BookStatus(reqData.Status),
		Price:       reqData.Price,
		Discount:    reqData.Discount,
		IsActive:    active,
	})
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Book created successfully!", out)
}

func (h *Controller) UpdateBook(c *fiber.Ctx) error {
	reqData := c.Locals("validatedBookUpdate").(*libraryValidator.BookUpdateRequest)
	in := library.BookUpdate{
		Title:       reqData.Title,
		Author:      reqData.Author,
		Description: reqData.Description,
		Category:    reqData.Category,
		FileURL:     reqData.FileURL,
		PreviewURL:  reqData.PreviewURL,
		Price:       reqData.Price,
		Discount:    reqData.Discount,
		IsActive:    reqData.IsActive,
	}
	if reqData.Status != nil {
		st := models.BookStatus(*reqData.Status)
		in.Status = &st
	}
	out, err := h.books.UpdateBook(c.UserContext(), validators.ID(c, "bookID"), in)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Book updated successfully!", out)
}

func (h *Controller) DeleteBook(c *fiber.Ctx) error {
	if err := h.books.DeleteBook(c.UserContext(), validators.ID(c, "bookID")); err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Book deleted successfully!", nil)
}

func (h *Controller) Purchase(c *fiber.Ctx) error {
	reqData := c.Locals("validatedPurchase").(*libraryValidator.PurchaseRequest)
	out, err := h.books.Purchase(c.UserContext(), middleware.UserID(c), validators.ID(c, "bookID"), reqData.Method)
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Book purchased successfully!", out)
}

func (h *Controller) Download(c *fiber.Ctx) error {
	out, err := h.books.Download(c.UserContext(), middleware.UserID(c), validators.ID(c, "bookID"), c.IP())
	if err != nil {
		return middleware.ErrorResponse(c, h.log, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Download started", out)
}
