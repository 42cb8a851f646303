package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
)

// DriverHandler manages the driver roster endpoints.
type DriverHandler struct {
	facade DriverFacade
}

func NewDriverHandler(facade DriverFacade) *DriverHandler {
	return &DriverHandler{facade: facade}
}

// List handles GET /api/drivers.
func (h *DriverHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToDriverResponses(h.facade.Drivers(queryBool(c, "active"))))
}

// Create handles POST /api/drivers.
func (h *DriverHandler) Create(c *gin.Context) {
	var req dto.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	driver, err := h.facade.CreateDriver(c.Request.Context(), req.ToModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToDriverResponse(driver))
}

// Update handles PATCH /api/drivers/:id.
func (h *DriverHandler) Update(c *gin.Context) {
	var req dto.UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	driver, err := h.facade.UpdateDriver(c.Request.Context(), c.Param("id"), req.ToPatch())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDriverResponse(driver))
}
