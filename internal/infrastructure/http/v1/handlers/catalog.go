package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/catalogs/cylindersize"
	"gasledger/internal/domain/catalogs/product"
	"gasledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves the cylinder size and product catalogs.
type CatalogHandler struct {
	BaseHandler
	sizes    *cylindersize.Service
	products *product.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(sizes *cylindersize.Service, products *product.Service) *CatalogHandler {
	return &CatalogHandler{sizes: sizes, products: products}
}

// CreateCylinderSize adds a size.
// POST /catalog/sizes
func (h *CatalogHandler) CreateCylinderSize(c *gin.Context) {
	var req dto.CreateCylinderSizeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	size, err := h.sizes.Create(c.Request.Context(), h.TenantID(c), req.Label)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, size)
}

// ListCylinderSizes returns active sizes.
// GET /catalog/sizes
func (h *CatalogHandler) ListCylinderSizes(c *gin.Context) {
	sizes, err := h.sizes.ListActive(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sizes)
}

// DeactivateCylinderSize soft-deactivates a size.
// POST /catalog/sizes/:sizeID/deactivate
func (h *CatalogHandler) DeactivateCylinderSize(c *gin.Context) {
	sizeID, ok := h.ParamID(c, "sizeID")
	if !ok {
		return
	}

	if err := h.sizes.Deactivate(c.Request.Context(), h.TenantID(c), sizeID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RemoveCylinderSize removes an unreferenced size.
// DELETE /catalog/sizes/:sizeID
func (h *CatalogHandler) RemoveCylinderSize(c *gin.Context) {
	sizeID, ok := h.ParamID(c, "sizeID")
	if !ok {
		return
	}

	if err := h.sizes.Remove(c.Request.Context(), h.TenantID(c), sizeID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateProduct adds a product.
// POST /catalog/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	companyID, ok := h.ParseID(c, "companyId", req.CompanyID)
	if !ok {
		return
	}
	sizeID, ok := h.ParseID(c, "cylinderSizeId", req.CylinderSizeID)
	if !ok {
		return
	}
	price, err := types.NewMoneyFromString(req.UnitPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unitPrice").
			WithDetail("value", req.UnitPrice))
		return
	}

	p, err := h.products.Create(c.Request.Context(), h.TenantID(c), companyID, sizeID, req.Name, price)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListProducts returns active products.
// GET /catalog/products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.products.ListActive(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// UpdateProductPrice sets a product's unit price.
// PUT /catalog/products/:productID/price
func (h *CatalogHandler) UpdateProductPrice(c *gin.Context) {
	productID, ok := h.ParamID(c, "productID")
	if !ok {
		return
	}

	var req dto.UpdatePriceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, err := types.NewMoneyFromString(req.UnitPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid unitPrice").
			WithDetail("value", req.UnitPrice))
		return
	}

	if err := h.products.UpdatePrice(c.Request.Context(), h.TenantID(c), productID, price); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
