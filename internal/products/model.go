package products

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidInput  = errors.New("invalid product data")
	ErrImageTooLarge = errors.New("image too large")
)

const (
	EventsQueue  = "catalog.products.events"
	EventCreated = "product_created"
	EventUpdated = "product_updated"
	EventDeleted = "product_deleted"
)

var validate = validator.New()

type Product struct {
	ID          string  `json:"id" example:"665f1c2b9d3e4a0012ab34cd"`
	Name        string  `json:"name" example:"Widget"`
	Description string  `json:"description" example:"A widget"`
	Price       float64 `json:"price" example:"9.99"`
	Quantity    int     `json:"quantity" example:"10"`
	Image       string  `json:"image" example:"/uploads/1717508400000-3f2a9c1e.png"`
}

// Input carries the client-editable fields of a Product. Presence is checked
// the way a falsy test would: empty strings and zero numbers count as missing.
type Input struct {
	Name        string  `validate:"required"`
	Description string  `validate:"required"`
	Price       float64 `validate:"required"`
	Quantity    int     `validate:"required"`
}

func (in Input) Validate() error {
	if math.IsNaN(in.Price) {
		return fmt.Errorf("%w: Price", ErrMissingFields)
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingFields, verrs[0].Field())
		}
		return fmt.Errorf("validate input: %w", err)
	}
	return in.CheckFinite()
}

// CheckFinite rejects a NaN or infinite price, which cannot be encoded as JSON.
func (in Input) CheckFinite() error {
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return fmt.Errorf("%w: price %v is not a finite number", ErrInvalidInput, in.Price)
	}
	return nil
}

// Image is an uploaded file as received from the client.
type Image struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type ProductEvent struct {
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
