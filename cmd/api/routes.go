package main

import (
	"dental-clinic/internal/httpapi"
	"dental-clinic/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	r.GET("/healthz", httpapi.Health)

	v1 := r.Group("/v1")
	v1.Use(authMW, httpapi.RequestMeta())

	admin := v1.Group("/admin")
	{
		// Dentists may ask who booked an appointment; everything else is admin-only.
		admin.GET("/audit/appointments/creator", rbac.RequireAnyRole(rbac.RoleDentist), h.FindAppointmentCreator)

		audit := admin.Group("/audit")
		audit.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			audit.GET("", h.ListAuditLogs)
			audit.GET("/targets/:target_type", h.SearchAuditLogs)
			audit.GET("/modules/:module_type/recent", h.GetRecentActivity)
			audit.GET("/search", h.SearchByActivity)
			audit.GET("/entities/creator", h.FindEntityCreator)
		}

		specs := admin.Group("/specializations")
		specs.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			specs.GET("", h.ListSpecializations)
			specs.POST("", h.CreateSpecializations)
			specs.PUT("/:id", h.UpdateSpecialization)
			specs.DELETE("/:id", h.DeleteSpecialization)
		}

		schedule := admin.Group("/clinic")
		schedule.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
		{
			schedule.GET("/availability", h.ListAvailability)
			schedule.PUT("/availability", h.SetAvailability)
			schedule.DELETE("/availability/:id", h.RemoveAvailability)
			schedule.POST("/closures", h.AddClosure)
			schedule.DELETE("/closures/:id", h.RemoveClosure)
		}
	}
}
