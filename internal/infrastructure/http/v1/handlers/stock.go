package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/stock"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// CreateMovement handles POST /stock/movements
func (h *StockHandler) CreateMovement(c *gin.Context) {
	var req dto.CreateMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	movement, err := h.service.CreateMovement(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromMovement(*movement))
}

// Transfer handles POST /stock/transfers
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.TransferStock(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromTransferResult(result))
}

// GetCell handles GET /stock/cells/:branchId/:productId
func (h *StockHandler) GetCell(c *gin.Context) {
	branchID, err := dto.ParseID("branchId", c.Param("branchId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	productID, err := dto.ParseID("productId", c.Param("productId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	cell, err := h.service.GetCurrentStock(c.Request.Context(), branchID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCell(cell))
}

// ListMovements handles GET /stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	var q dto.MovementHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	page, err := h.service.ListMovementHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromMovements(page.Items),
		Pagination: dto.NewPaginationResponse(page.Page, page.PageSize, page.Total),
	})
}
