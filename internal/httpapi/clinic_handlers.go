package httpapi

import (
	"net/http"

	"dental-clinic/internal/clinic"

	"github.com/gin-gonic/gin"
)

type createSpecializationsRequest struct {
	Names []string `json:"names"`
}

type updateSpecializationRequest struct {
	Name string `json:"name"`
}

type setAvailabilityRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

type addClosureRequest struct {
	Date     string `json:"date"`
	Reason   string `json:"reason"`
	IsClosed *bool  `json:"is_closed"`
}

func (h Handlers) ListSpecializations(c *gin.Context) {
	out, err := h.Clinic.ListSpecializations(c.Request.Context())
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"specializations": out})
}

func (h Handlers) CreateSpecializations(c *gin.Context) {
	var req createSpecializationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clinic.CreateSpecializations(c.Request.Context(), actor(c), req.Names)
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"specializations": out})
}

func (h Handlers) UpdateSpecialization(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clinic.UpdateSpecialization(c.Request.Context(), actor(c), id, req.Name)
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) DeleteSpecialization(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Clinic.DeleteSpecialization(c.Request.Context(), actor(c), id); err != nil {
		writeClinicError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) ListAvailability(c *gin.Context) {
	ctx := c.Request.Context()
	avail, err := h.Clinic.ListAvailability(ctx)
	if err != nil {
		writeClinicError(c, err)
		return
	}
	closures, err := h.Clinic.ListClosures(ctx)
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"availabilities": avail, "closures": closures})
}

func (h Handlers) SetAvailability(c *gin.Context) {
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clinic.SetAvailability(c.Request.Context(), actor(c), clinic.Availability{
		DayOfWeek: req.DayOfWeek,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		IsClosed:  req.IsClosed,
	})
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) RemoveAvailability(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Clinic.RemoveAvailability(c.Request.Context(), actor(c), id); err != nil {
		writeClinicError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) AddClosure(c *gin.Context) {
	var req addClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Clinic.AddClosure(c.Request.Context(), actor(c), req.Date, req.Reason, req.IsClosed)
	if err != nil {
		writeClinicError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h Handlers) RemoveClosure(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Clinic.RemoveClosure(c.Request.Context(), actor(c), id); err != nil {
		writeClinicError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
