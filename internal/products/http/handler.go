package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"catalog-admin/internal/products"

	"github.com/gin-gonic/gin"
)

const (
	imageField = "image"

	msgMissingFields  = "Missing required fields"
	msgInvalidProduct = "Invalid product data"
	msgImageTooLarge  = "Image too large"
	msgNotFound       = "Product not found"
	msgDeleted        = "Product deleted"
	msgFetchFailed    = "Error fetching products"
	msgCreateFailed   = "Error adding product"
	msgUpdateFailed   = "Error updating product"
	msgDeleteFailed   = "Error deleting product"
)

type ProductService interface {
	ListProducts(ctx context.Context) ([]products.Product, error)
	CreateProduct(ctx context.Context, in products.Input, img *products.Image) (products.Product, error)
	UpdateProduct(ctx context.Context, id string, in products.Input, img *products.Image) (products.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type Handler struct {
	service ProductService
	logger  *slog.Logger
}

func NewHandler(svc ProductService, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// productForm binds multipart, urlencoded and JSON bodies alike. Empty numeric
// form values bind as zero and are then rejected as missing by the service.
type productForm struct {
	Name        string  `form:"name" json:"name" example:"Widget"`
	Description string  `form:"description" json:"description" example:"A widget"`
	Price       float64 `form:"price" json:"price" example:"9.99"`
	Quantity    int     `form:"quantity" json:"quantity" example:"10"`
}

func (f productForm) input() products.Input {
	return products.Input{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Quantity:    f.Quantity,
	}
}

type statusResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Product not found"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, statusResponse{Success: false, Message: message})
}

// ListProducts godoc
// @Summary      List all products
// @Tags         products
// @Produce      json
// @Success      200  {array}   products.Product
// @Failure      500  {object}  statusResponse
// @Router       /api/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	items, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.logger.Error("list products", "error", err)
		fail(c, http.StatusInternalServerError, msgFetchFailed)
		return
	}

	c.JSON(http.StatusOK, items)
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        name         formData  string  true   "Name"
// @Param        description  formData  string  true   "Description"
// @Param        price        formData  number  true   "Price"
// @Param        quantity     formData  integer true   "Quantity"
// @Param        image        formData  file    false  "Image file"
// @Success      200  {object}  products.Product
// @Failure      400  {object}  statusResponse
// @Failure      500  {object}  statusResponse
// @Router       /api/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidProduct)
		return
	}

	img, closeImg, err := formImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, msgInvalidProduct)
		return
	}
	defer closeImg()

	product, err := h.service.CreateProduct(c.Request.Context(), form.input(), img)
	if err != nil {
		switch {
		case errors.Is(err, products.ErrMissingFields):
			fail(c, http.StatusBadRequest, msgMissingFields)
		case errors.Is(err, products.ErrInvalidInput):
			fail(c, http.StatusBadRequest, msgInvalidProduct)
		case errors.Is(err, products.ErrImageTooLarge):
			fail(c, http.StatusBadRequest, msgImageTooLarge)
		default:
			h.logger.Error("create product", "error", err)
			fail(c, http.StatusInternalServerError, msgCreateFailed)
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct godoc
// @Summary      Replace a product's fields
// @Description  Without an image file the stored image path is kept.
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        id           path      string  true   "Product ID"
// @Param        name         formData  string  false  "Name"
// @Param        description  formData  string  false  "Description"
// @Param        price        formData  number  false  "Price"
// @Param        quantity     formData  integer false  "Quantity"
// @Param        image        formData  file    false  "Image file"
// @Success      200  {object}  products.Product
// @Failure      400  {object}  statusResponse
// @Failure      404  {object}  statusResponse
// @Failure      500  {object}  statusResponse
// @Router       /api/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidProduct)
		return
	}

	img, closeImg, err := formImage(c)
	if err != nil {
		fail(c, http.StatusBadRequest, msgInvalidProduct)
		return
	}
	defer closeImg()

	product, err := h.service.UpdateProduct(c.Request.Context(), c.Param("id"), form.input(), img)
	if err != nil {
		switch {
		case errors.Is(err, products.ErrNotFound):
			fail(c, http.StatusNotFound, msgNotFound)
		case errors.Is(err, products.ErrInvalidInput):
			fail(c, http.StatusBadRequest, msgInvalidProduct)
		case errors.Is(err, products.ErrImageTooLarge):
			fail(c, http.StatusBadRequest, msgImageTooLarge)
		default:
			h.logger.Error("update product", "product_id", c.Param("id"), "error", err)
			fail(c, http.StatusInternalServerError, msgUpdateFailed)
		}
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary      Delete a product
// @Description  The product's image file, if any, is not removed.
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  statusResponse
// @Failure      500  {object}  statusResponse
// @Router       /api/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, products.ErrNotFound) {
			fail(c, http.StatusNotFound, msgNotFound)
			return
		}
		h.logger.Error("delete product", "product_id", c.Param("id"), "error", err)
		fail(c, http.StatusInternalServerError, msgDeleteFailed)
		return
	}

	c.JSON(http.StatusOK, statusResponse{Success: true, Message: msgDeleted})
}

// formImage returns the optional uploaded image. The returned close func is
// always safe to call.
func formImage(c *gin.Context) (*products.Image, func(), error) {
	noop := func() {}

	header, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	img := &products.Image{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}
	return img, func() { _ = file.Close() }, nil
}
