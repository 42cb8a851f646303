package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
)

// CustomerHandler manages the customer directory endpoints.
type CustomerHandler struct {
	facade CustomerFacade
}

func NewCustomerHandler(facade CustomerFacade) *CustomerHandler {
	return &CustomerHandler{facade: facade}
}

// List handles GET /api/customers.
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.facade.Customers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCustomerResponses(customers))
}

// Create handles POST /api/customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.facade.CreateCustomer(c.Request.Context(), req.ToModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCustomerResponse(*customer))
}

// Update handles PATCH /api/customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.facade.UpdateCustomer(c.Request.Context(), c.Param("id"), req.ToPatch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCustomerResponse(*customer))
}
