package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/dispatchboard/internal/server/http/dto"
)

// ReportHandler exports order reports.
type ReportHandler struct {
	facade ReportFacade
}

func NewReportHandler(facade ReportFacade) *ReportHandler {
	return &ReportHandler{facade: facade}
}

// OrdersCSV handles GET /api/reports/orders.csv.
func (h *ReportHandler) OrdersCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.facade.WriteOrdersCSV(&buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Summary handles GET /api/reports/summary.
func (h *ReportHandler) Summary(c *gin.Context) {
	s := h.facade.Summary()
	c.JSON(http.StatusOK, dto.SummaryResponse{
		Total:     s.Total,
		Completed: s.Completed,
		ByType:    dto.ToCounts(s.ByType),
		ByStage:   dto.ToCounts(s.ByStage),
	})
}
