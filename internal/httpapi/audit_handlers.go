package httpapi

import (
	"net/http"
	"strconv"

	"dental-clinic/internal/audit"
	"dental-clinic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs pages through the audit trail.
// Query: limit, before (exclusive id cursor).
func (h Handlers) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	before, ok := optionalID(c, "before")
	if !ok {
		return
	}
	p := audit.ListParams{Limit: limit}
	if before != nil {
		p.BeforeID = *before
	}

	page, err := h.Audit.List(c.Request.Context(), p)
	if err != nil {
		logger.FromGin(c).Error("audit list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit list failed"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// SearchAuditLogs: GET /audit/targets/:target_type?target_id=&action=
func (h Handlers) SearchAuditLogs(c *gin.Context) {
	targetID, ok := optionalID(c, "target_id")
	if !ok {
		return
	}
	res, err := h.Audit.SearchAuditLogs(c.Request.Context(), c.Param("target_type"), targetID, c.Query("action"))
	writeResult(c, res, err)
}

// FindAppointmentCreator: GET /audit/appointments/creator?appointment_id=&patient_name=
func (h Handlers) FindAppointmentCreator(c *gin.Context) {
	appointmentID, ok := optionalID(c, "appointment_id")
	if !ok {
		return
	}
	res, err := h.Audit.FindAppointmentCreator(c.Request.Context(), appointmentID, c.Query("patient_name"))
	writeResult(c, res, err)
}

// GetRecentActivity: GET /audit/modules/:module_type/recent?limit=
func (h Handlers) GetRecentActivity(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}
	res, err := h.Audit.GetRecentActivity(c.Request.Context(), c.Param("module_type"), limit)
	writeResult(c, res, err)
}

// SearchByActivity: GET /audit/search?activity=&module=&keyword=
func (h Handlers) SearchByActivity(c *gin.Context) {
	var q audit.ActivityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}
	res, err := h.Audit.SearchByActivity(c.Request.Context(), q)
	writeResult(c, res, err)
}

// FindEntityCreator: GET /audit/entities/creator?name=
func (h Handlers) FindEntityCreator(c *gin.Context) {
	res, err := h.Audit.FindEntityCreator(c.Request.Context(), c.Query("name"))
	writeResult(c, res, err)
}
