package handler

import (
	"fmt"
	"net/http"
	"time"

	"complaintdesk/backend/internal/analysis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stats summarizes every complaint matching the list filters.
func (h *Handler) Stats(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	all, err := h.Complaints.ListAll(c.Request.Context(), session(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis.Summarize(all))
}

// ExportComplaints streams the filtered complaint set as CSV.
func (h *Handler) ExportComplaints(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	all, err := h.Complaints.ListAll(c.Request.Context(), session(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	name := fmt.Sprintf("complaints-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if err := analysis.WriteCSV(c.Writer, all); err != nil {
		// Headers are already sent; the client sees a truncated file.
		h.log.Error("csv export interrupted", zap.Int("rows", len(all)), zap.Error(err))
	}
}

// Healthz reports database and Redis reachability.
func (h *Handler) Healthz(c *gin.Context) {
	if h.HealthChecker == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}
	components, ok := h.HealthChecker.Health(c.Request.Context())
	status, code := "healthy", http.StatusOK
	if !ok {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}
