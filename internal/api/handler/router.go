package handler

import (
	"net/http"

	"complaintdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handler) *gin.Engine {
	useJSONFieldNames()
	r := gin.New()
	r.Use(gin.Recovery(), h.AccessLog(), h.CORS())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", h.Sessions())

	// Public surface used by the submission form.
	api.POST("/auth/login", h.Login)
	api.POST("/complaints", h.SubmitComplaint)
	api.POST("/attachments", h.UploadAttachment)
	api.POST("/feedbacks", h.CreateFeedback)
	api.POST("/surveys", h.CreateSurvey)
	api.GET("/locations", listHandler(h, h.Storage.ListLocations))

	admin := api.Group("/", h.RequireAdmin())
	admin.POST("/auth/logout", h.Logout)
	admin.GET("/ws", h.ServeWebSocket)

	admin.GET("/complaints", h.ListComplaints)
	admin.GET("/complaints/export.csv", h.ExportComplaints)
	admin.POST("/complaints/bulk-delete", h.BulkDeleteComplaints)
	admin.GET("/complaints/:id", h.GetComplaint)
	admin.DELETE("/complaints/:id", h.DeleteComplaint)
	admin.GET("/complaints/:id/history", h.ComplaintHistory)
	admin.POST("/complaints/:id/take", h.mutate(h.takeIntoWork))
	admin.POST("/complaints/:id/reject", h.mutate(h.reject))
	admin.POST("/complaints/:id/reopen", h.mutate(h.reopen))
	admin.PUT("/complaints/:id/status", h.mutate(h.setStatus))
	admin.PUT("/complaints/:id/response", h.mutate(h.attachResponse))
	admin.DELETE("/complaints/:id/response", h.mutate(h.deleteResponse))
	admin.PUT("/complaints/:id/priority", h.mutate(h.setPriority))
	admin.PUT("/complaints/:id/assignee", h.mutate(h.setAssignee))
	admin.GET("/stats", h.Stats)

	registerReference(admin, h, "/priorities", h.Storage.ListPriorities, h.Storage.SavePriority, h.Storage.DeletePriority,
		func(p *models.Priority, id string) { p.ID = id }, validatePriority)
	registerReference(admin, h, "/assignees", h.Storage.ListAssignees, h.Storage.SaveAssignee, h.Storage.DeleteAssignee,
		func(a *models.Assignee, id string) { a.ID = id }, validateAssignee)
	registerReference(admin, h, "/locations", nil, h.Storage.SaveLocation, h.Storage.DeleteLocation,
		func(l *models.Location, id string) { l.ID = id }, validateLocation)
	registerReference(admin, h, "/templates", h.Storage.ListTemplates, h.Storage.SaveTemplate, h.Storage.DeleteTemplate,
		func(t *models.ResponseTemplate, id string) { t.ID = id }, validateTemplate)

	admin.GET("/feedbacks", h.ListFeedbacks)
	admin.GET("/surveys", h.ListSurveys)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}
