package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/domain/model"
	"github.com/polkiloo/dispatchboard/internal/domain/transition"
	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToOrderResponses(h.facade.Orders(c.Query("q"))))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pending, err := h.facade.SubmitCreate(c.Request.Context(), req.ToPayload(), req.DriverID)
	if err != nil {
		writeError(c, err)
		return
	}
	settle(c, pending, http.StatusCreated)
}

// Edit handles PATCH /api/orders/:id.
func (h *OrderHandler) Edit(c *gin.Context) {
	var req dto.EditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.submit(c, req.ToEdit())
}

// Move handles POST /api/orders/:id/move.
func (h *OrderHandler) Move(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.submit(c, transition.MoveToColumn{Column: model.PickingColumn(req.Column)})
}

// Ready handles POST /api/orders/:id/ready.
func (h *OrderHandler) Ready(c *gin.Context) {
	h.submit(c, transition.MarkReady{})
}

// Assign handles POST /api/orders/:id/assign.
func (h *OrderHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := h.facade.AssignCommand(req.DriverID)
	if err != nil {
		writeError(c, err)
		return
	}
	h.submit(c, cmd)
}

// Complete handles POST /api/orders/:id/complete.
func (h *OrderHandler) Complete(c *gin.Context) {
	h.submit(c, transition.Complete{})
}

// Timeline handles GET /api/orders/:id/timeline.
func (h *OrderHandler) Timeline(c *gin.Context) {
	entries, err := h.facade.OrderTimeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTimeline(entries))
}

// Refresh handles POST /api/refresh.
func (h *OrderHandler) Refresh(c *gin.Context) {
	if err := h.facade.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) submit(c *gin.Context, cmd transition.Command) {
	pending, err := h.facade.SubmitOrder(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	settle(c, pending, http.StatusOK)
}
