package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dental-clinic/internal/audit"
	"dental-clinic/internal/auth"
	"dental-clinic/internal/clinic"
	"dental-clinic/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Audit  *audit.Engine
	Clinic *clinic.Service
}

// RequestMeta attaches the client IP and user agent for audit records.
// Register it after auth so every audited mutation sees it.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := audit.WithRequestMeta(c.Request.Context(), audit.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actor returns the authenticated principal, or zero when none is present.
func actor(c *gin.Context) int64 {
	id, _ := auth.PrincipalID(c.Request.Context())
	return id
}

// optionalID parses an optional positive integer query parameter.
// Empty means absent; anything else that is not an integer is rejected.
func optionalID(c *gin.Context, key string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be an integer"})
		return nil, false
	}
	return &n, true
}

func pathID(c *gin.Context, key string) (int64, bool) {
	n, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || n <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": key + " must be a positive integer"})
		return 0, false
	}
	return n, true
}

// writeResult renders a query outcome. no_match is a normal answer, not an error.
func writeResult[T any](c *gin.Context, res audit.Result[T], err error) {
	if err != nil {
		logger.FromGin(c).Error("audit query failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit query failed"})
		return
	}
	if res.Status == audit.StatusInvalidRequest {
		c.AbortWithStatusJSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeClinicError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, clinic.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid argument"})
	case errors.Is(err, clinic.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, clinic.ErrInUse):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Cannot delete specialization that is assigned to dentists."})
	case errors.Is(err, clinic.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		logger.FromGin(c).Error("clinic operation failed", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
