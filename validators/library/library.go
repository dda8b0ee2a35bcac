package libraryValidator

import (
	"github.com/gofiber/fiber/v2"

	"shams/validators"
)

type BookListQuery struct {
	Category string `query:"category" validate:"omitempty,oneof=ai robotics programming"`
	Status   string `query:"status" validate:"omitempty,oneof=free paid discounted"`
	Search   string `query:"search" validate:"max=100"`
}

type BookRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Author      string  `json:"author" validate:"required,max=255"`
	Description string  `json:"description"`
	Category    string  `json:"category" validate:"omitempty,oneof=ai robotics programming"`
	FileURL     string  `json:"file_url" validate:"required,url"`
	PreviewURL  string  `json:"preview_url" validate:"omitempty,url"`
	Status      string  `json:"status" validate:"required,oneof=free paid discounted"`
	Price       float64 `json:"price" validate:"gte=0"`
	Discount    float64 `json:"discount" validate:"gte=0,lte=100"`
	IsActive    *bool   `json:"is_active"`
}

type BookUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Author      *string  `json:"author" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitempty,oneof=ai robotics programming"`
	FileURL     *string  `json:"file_url" validate:"omitempty,url"`
	PreviewURL  *string  `json:"preview_url" validate:"omitempty,url"`
	Status      *string  `json:"status" validate:"omitempty,oneof=free paid discounted"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Discount    *float64 `json:"discount" validate:"omitempty,gte=0,lte=100"`
	IsActive    *bool    `json:"is_active"`
}

// PurchaseRequest accepts a card number for the provider form; it is never stored.
type PurchaseRequest struct {
	Method     string `json:"method" validate:"required"`
	CardNumber string `json:"card_number" validate:"omitempty,numeric,min=12,max=19"`
}

func BookID() fiber.Handler {
	return validators.ParamID("id", "bookID")
}

func BookList() fiber.Handler {
	return validators.Query[BookListQuery]("validatedBookList")
}

func CreateBook() fiber.Handler {
	return validators.Body[BookRequest]("validatedBook")
}

func UpdateBook() fiber.Handler {
	return validators.Body[BookUpdateRequest]("validatedBookUpdate")
}

func Purchase() fiber.Handler {
	return validators.Body[PurchaseRequest]("validatedPurchase")
}
