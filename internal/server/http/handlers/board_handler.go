package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/board"
	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
)

// BoardHandler serves the board projections.
type BoardHandler struct {
	facade BoardFacade
}

func NewBoardHandler(facade BoardFacade) *BoardHandler {
	return &BoardHandler{facade: facade}
}

// Show returns a handler for one board kind. Driver boards read the driver
// id from the :id path parameter.
func (h *BoardHandler) Show(kind board.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := h.facade.Board(kind, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ToBoardResponse(view))
	}
}
