package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gasledger/internal/core/apperror"
	"gasledger/internal/core/types"
	"gasledger/internal/domain/events"
	"gasledger/internal/infrastructure/http/v1/dto"
)

// EventsHandler ingests sale and shipment facts.
type EventsHandler struct {
	BaseHandler
	sales     events.SaleRepository
	shipments events.ShipmentRepository
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(sales events.SaleRepository, shipments events.ShipmentRepository) *EventsHandler {
	return &EventsHandler{sales: sales, shipments: shipments}
}

// RecordSales appends a batch of sale facts.
// POST /events/sales
func (h *EventsHandler) RecordSales(c *gin.Context) {
	var req dto.RecordSalesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID := h.TenantID(c)
	batch := make([]*events.SaleEvent, 0, len(req.Sales))
	for _, s := range req.Sales {
		driverID, ok := h.ParseID(c, "driverId", s.DriverID)
		if !ok {
			return
		}
		productID, ok := h.ParseID(c, "productId", s.ProductID)
		if !ok {
			return
		}
		saleDate, ok := h.ParseDate(c, s.SaleDate)
		if !ok {
			return
		}
		unitPrice, ok := h.parseMoney(c, "unitPrice", s.UnitPrice)
		if !ok {
			return
		}
		discount, ok := h.parseMoney(c, "discount", s.Discount)
		if !ok {
			return
		}
		cash, ok := h.parseMoney(c, "cashDeposited", s.CashDeposited)
		if !ok {
			return
		}

		batch = append(batch, &events.SaleEvent{
			TenantID:           tenantID,
			DriverID:           driverID,
			ProductID:          productID,
			Type:               events.SaleType(s.SaleType),
			Quantity:           types.Count(s.Quantity),
			UnitPrice:          unitPrice,
			Discount:           discount,
			CashDeposited:      cash,
			CylindersDeposited: types.Count(s.CylindersDeposited),
			SaleDate:           saleDate,
		})
	}

	if err := h.sales.Record(c.Request.Context(), batch); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RecordedResponse{Recorded: len(batch)})
}

// RecordShipments appends a batch of shipment facts.
// POST /events/shipments
func (h *EventsHandler) RecordShipments(c *gin.Context) {
	var req dto.RecordShipmentsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tenantID := h.TenantID(c)
	batch := make([]*events.ShipmentBatch, 0, len(req.Shipments))
	for _, s := range req.Shipments {
		shipmentDate, ok := h.ParseDate(c, s.ShipmentDate)
		if !ok {
			return
		}
		unitCost, ok := h.parseMoney(c, "unitCost", s.UnitCost)
		if !ok {
			return
		}

		b := &events.ShipmentBatch{
			TenantID:     tenantID,
			Quantity:     types.Count(s.Quantity),
			UnitCost:     unitCost,
			Direction:    events.Direction(s.Direction),
			Content:      events.Content(s.Content),
			Status:       events.ShipmentStatus(s.Status),
			ShipmentDate: shipmentDate,
		}
		if s.ProductID != "" {
			if b.ProductID, ok = h.ParseID(c, "productId", s.ProductID); !ok {
				return
			}
		}
		if s.CylinderSizeID != "" {
			if b.CylinderSizeID, ok = h.ParseID(c, "cylinderSizeId", s.CylinderSizeID); !ok {
				return
			}
		}
		batch = append(batch, b)
	}

	if err := h.shipments.Record(c.Request.Context(), batch); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RecordedResponse{Recorded: len(batch)})
}

// parseMoney parses a decimal string, treating empty as zero.
func (h *EventsHandler) parseMoney(c *gin.Context, field, raw string) (types.Money, bool) {
	if raw == "" {
		return types.ZeroMoney(), true
	}
	m, err := types.NewMoneyFromString(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+field).
			WithDetail("field", field).
			WithDetail("value", raw))
		return types.ZeroMoney(), false
	}
	return m, true
}
