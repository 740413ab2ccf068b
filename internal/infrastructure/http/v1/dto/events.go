package dto

// SaleRequest is one sale fact to record.
type SaleRequest struct {
	DriverID           string `json:"driverId" binding:"required"`
	ProductID          string `json:"productId" binding:"required"`
	SaleType           string `json:"saleType" binding:"required"`
	Quantity           int64  `json:"quantity" binding:"required"`
	UnitPrice          string `json:"unitPrice" binding:"required"`
	Discount           string `json:"discount"`
	CashDeposited      string `json:"cashDeposited"`
	CylindersDeposited int64  `json:"cylindersDeposited"`
	SaleDate           string `json:"saleDate" binding:"required"`
}

// RecordSalesRequest appends a batch of sale facts.
type RecordSalesRequest struct {
	Sales []SaleRequest `json:"sales" binding:"required,min=1"`
}

// ShipmentRequest is one shipment fact to record.
type ShipmentRequest struct {
	ProductID      string `json:"productId"`
	CylinderSizeID string `json:"cylinderSizeId"`
	Quantity       int64  `json:"quantity" binding:"required"`
	UnitCost       string `json:"unitCost"`
	Direction      string `json:"direction" binding:"required"`
	Content        string `json:"content" binding:"required"`
	Status         string `json:"status" binding:"required"`
	ShipmentDate   string `json:"shipmentDate" binding:"required"`
}

// RecordShipmentsRequest appends a batch of shipment facts.
type RecordShipmentsRequest struct {
	Shipments []ShipmentRequest `json:"shipments" binding:"required,min=1"`
}

// RecordedResponse acknowledges an event batch.
type RecordedResponse struct {
	Recorded int `json:"recorded"`
}
