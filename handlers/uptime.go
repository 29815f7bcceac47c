package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phonginreallife/inres/db"
	"github.com/phonginreallife/inres/services"
)

type UptimeHandler struct {
	UptimeService *services.UptimeService
}

func NewUptimeHandler(uptimeService *services.UptimeService) *UptimeHandler {
	return &UptimeHandler{UptimeService: uptimeService}
}

// GetUptimeDashboard returns the current status of every monitored service.
// GET /uptime
func (h *UptimeHandler) GetUptimeDashboard(c *gin.Context) {
	dashboard, err := h.UptimeService.GetUptimeDashboard()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get uptime dashboard: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// ListServices returns every service registered for uptime monitoring.
// GET /uptime/services
func (h *UptimeHandler) ListServices(c *gin.Context) {
	services, err := h.UptimeService.ListServices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list services: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services, "count": len(services)})
}

// CreateService registers a new service for uptime monitoring.
// POST /uptime/services
func (h *UptimeHandler) CreateService(c *gin.Context) {
	var req db.UptimeService
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	service, err := h.UptimeService.CreateService(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service": service})
}

// GetService returns a single monitored service.
// GET /uptime/services/:id
func (h *UptimeHandler) GetService(c *gin.Context) {
	id := c.Param("id")
	service, err := h.UptimeService.GetService(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"service": service})
}

// GetServiceStats returns 24h uptime statistics for a monitored service.
// GET /uptime/services/:id/stats
func (h *UptimeHandler) GetServiceStats(c *gin.Context) {
	id := c.Param("id")
	stats, err := h.UptimeService.GetServiceStats(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get service stats: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetServiceHistory returns recent check history for a monitored service.
// GET /uptime/services/:id/history?limit=100
func (h *UptimeHandler) GetServiceHistory(c *gin.Context) {
	id := c.Param("id")
	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	history, err := h.UptimeService.GetServiceHistory(id, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get service history: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}
