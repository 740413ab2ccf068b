package dto

// CreateCylinderSizeRequest adds a size to the catalog.
type CreateCylinderSizeRequest struct {
	Label string `json:"label" binding:"required"`
}

// CreateProductRequest adds a product to the catalog.
type CreateProductRequest struct {
	CompanyID      string `json:"companyId" binding:"required"`
	CylinderSizeID string `json:"cylinderSizeId" binding:"required"`
	Name           string `json:"name" binding:"required"`
	UnitPrice      string `json:"unitPrice" binding:"required"`
}

// UpdatePriceRequest sets a product's current unit price.
type UpdatePriceRequest struct {
	UnitPrice string `json:"unitPrice" binding:"required"`
}
