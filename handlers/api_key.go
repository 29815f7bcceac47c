package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phonginreallife/inres/authz"
	"github.com/phonginreallife/inres/db"
	"github.com/phonginreallife/inres/services"
)

type APIKeyHandler struct {
	APIKeyService *services.APIKeyService
	AlertService  *services.AlertService
	UserService   *services.UserService
}

func NewAPIKeyHandler(apiKeyService *services.APIKeyService, alertService *services.AlertService, userService *services.UserService) *APIKeyHandler {
	return &APIKeyHandler{
		APIKeyService: apiKeyService,
		AlertService:  alertService,
		UserService:   userService,
	}
}

// APIKeyAuthMiddleware authenticates webhook requests via the "Authorization:
// Bearer <key>" or "X-API-Key" header, sets the resolved api_key_id/user_id/
// group_id in the gin context, and records usage asynchronously.
func (h *APIKeyHandler) APIKeyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-Key")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			c.Abort()
			return
		}

		apiKey, err := h.APIKeyService.ValidateAPIKey(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired API key"})
			c.Abort()
			return
		}

		c.Set("api_key_id", apiKey.ID)
		c.Set("user_id", apiKey.UserID)
		c.Set("is_api_key", true)
		c.Set("api_key_permissions", apiKey.Permissions)
		if apiKey.GroupID != "" {
			c.Set("group_id", apiKey.GroupID)
		}
		if apiKey.OrganizationID != "" {
			c.Set("current_org_id", apiKey.OrganizationID)
		}

		go h.APIKeyService.UpdateLastUsed(apiKey.ID)

		c.Next()
	}
}

// CreateAPIKey issues a new API key for the authenticated user.
// POST /api-keys
func (h *APIKeyHandler) CreateAPIKey(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req db.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	filters := authz.GetReBACFilters(c)
	orgID, _ := filters["current_org_id"].(string)

	key, err := h.APIKeyService.CreateAPIKey(req, userID.(string), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create api key: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"api_key": db.CreateAPIKeyResponse{
			ID:          key.ID,
			Name:        key.Name,
			APIKey:      key.APIKey,
			Environment: key.Environment,
			Permissions: key.Permissions,
			CreatedAt:   key.CreatedAt,
			ExpiresAt:   key.ExpiresAt,
			Message:     "Store this key securely, it will not be shown again",
		},
	})
}

// ListAPIKeys returns the authenticated user's API keys.
// GET /api-keys
func (h *APIKeyHandler) ListAPIKeys(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	keys, err := h.APIKeyService.ListAPIKeys(userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list api keys: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_keys": keys, "count": len(keys)})
}

// GetAPIKeyStats returns usage statistics for the authenticated user's keys.
// GET /api-keys/stats
// Registered before /:id so it isn't shadowed by the param route.
func (h *APIKeyHandler) GetAPIKeyStats(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	stats, err := h.APIKeyService.GetAPIKeyStats(userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get api key stats: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetAPIKey returns a single API key owned by the authenticated user.
// GET /api-keys/:id
func (h *APIKeyHandler) GetAPIKey(c *gin.Context) {
	id := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	key, err := h.APIKeyService.GetAPIKey(id, userID.(string))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": key})
}

// UpdateAPIKey updates the mutable fields of an API key.
// PUT /api-keys/:id
func (h *APIKeyHandler) UpdateAPIKey(c *gin.Context) {
	id := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req db.UpdateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	key, err := h.APIKeyService.UpdateAPIKey(id, userID.(string), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update api key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": key, "message": "API key updated successfully"})
}

// DeleteAPIKey revokes an API key.
// DELETE /api-keys/:id
func (h *APIKeyHandler) DeleteAPIKey(c *gin.Context) {
	id := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.APIKeyService.DeleteAPIKey(id, userID.(string)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete api key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted successfully"})
}

// RegenerateAPIKey rotates the secret behind an existing key.
// POST /api-keys/:id/regenerate
func (h *APIKeyHandler) RegenerateAPIKey(c *gin.Context) {
	id := c.Param("id")
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	key, err := h.APIKeyService.RegenerateAPIKey(id, userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate api key: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key": key,
		"message": "API key regenerated, store the new value securely, it will not be shown again",
	})
}

// WebhookAlert creates an alert via the legacy API-key-authenticated webhook route.
// POST /webhooks/alert
func (h *APIKeyHandler) WebhookAlert(c *gin.Context) {
	alert, err := h.AlertService.CreateAlertFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create alert: " + err.Error()})
		return
	}

	if apiKeyID, exists := c.Get("api_key_id"); exists {
		go h.APIKeyService.IncrementAlertsCreated(apiKeyID.(string))
	}

	c.JSON(http.StatusCreated, gin.H{"alert": alert, "message": "Alert created successfully"})
}
