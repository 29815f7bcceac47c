package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phonginreallife/inres/db"
	"github.com/phonginreallife/inres/internal/normalize"
	"github.com/phonginreallife/inres/services"
)

// WebhookHandler receives vendor monitoring webhooks, normalizes each
// alert they carry and routes it into the incident lifecycle: firing
// alerts resolve a target service/assignee and create an incident,
// resolved alerts look up and close the matching open incident.
type WebhookHandler struct {
	integrationService *services.IntegrationService
	alertService       *services.AlertService
	incidentService    *services.IncidentService
	serviceService     *services.ServiceService
	routingService     *services.RoutingService
}

func NewWebhookHandler(integrationService *services.IntegrationService, alertService *services.AlertService, incidentService *services.IncidentService, serviceService *services.ServiceService, routingService *services.RoutingService) *WebhookHandler {
	return &WebhookHandler{
		integrationService: integrationService,
		alertService:       alertService,
		incidentService:    incidentService,
		serviceService:     serviceService,
		routingService:     routingService,
	}
}

// WebhookPayload is the audit-log shape of a single received webhook call.
type WebhookPayload struct {
	IntegrationType string                      `json:"integration_type"`
	IntegrationID   string                      `json:"integration_id"`
	Timestamp       time.Time                   `json:"timestamp"`
	RawPayload      map[string]interface{}      `json:"raw_payload"`
	ProcessedAlerts []normalize.NormalizedAlert `json:"processed_alerts"`
}

// ResolvedServiceInfo holds service resolution results
type ResolvedServiceInfo struct {
	Service            *db.Service
	ServiceIntegration *db.ServiceIntegration
	Found              bool
}

// ResolvedAssigneeInfo holds assignee resolution results
type ResolvedAssigneeInfo struct {
	UserID string
	Found  bool
	Method string // "escalation_policy", "default", etc.
}

// POST /webhook/:type/:integration_id
func (h *WebhookHandler) ReceiveWebhook(c *gin.Context) {
	integrationType := c.Param("type")
	integrationID := c.Param("integration_id")

	log.Printf("Received webhook: type=%s, integration_id=%s", integrationType, integrationID)

	integration, err := h.integrationService.GetIntegration(integrationID)
	if err != nil {
		log.Printf("Integration not found: %s, error: %v", integrationID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Integration not found"})
		return
	}

	if !integration.IsActive {
		log.Printf("Integration is inactive: %s", integrationID)
		c.JSON(http.StatusForbidden, gin.H{"error": "Integration is inactive"})
		return
	}

	if integration.Type != integrationType {
		log.Printf("Integration type mismatch: expected %s, got %s", integration.Type, integrationType)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Integration type mismatch"})
		return
	}

	var rawPayload map[string]interface{}
	if err := c.ShouldBindJSON(&rawPayload); err != nil {
		log.Printf("Invalid JSON payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if err := h.integrationService.UpdateHeartbeat(integrationID); err != nil {
		log.Printf("Failed to update heartbeat for integration %s: %v", integrationID, err)
		// Don't fail the webhook for this
	}

	alerts := normalize.Normalize(integrationType, rawPayload)

	webhookPayload := WebhookPayload{
		IntegrationType: integrationType,
		IntegrationID:   integrationID,
		Timestamp:       time.Now(),
		RawPayload:      rawPayload,
		ProcessedAlerts: alerts,
	}
	log.Printf("Webhook payload normalized: type=%s, integration=%s, alerts=%d",
		webhookPayload.IntegrationType, webhookPayload.IntegrationID, len(webhookPayload.ProcessedAlerts))

	for _, alert := range alerts {
		if err := h.routeAlert(integration, alert); err != nil {
			log.Printf("Failed to process alert %s: %v", alert.AlertName, err)
			// Continue processing other alerts
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Webhook processed successfully",
		"alerts_count":   len(alerts),
		"integration_id": integrationID,
		"timestamp":      time.Now(),
	})
}

// routeAlert dispatches a normalized alert based on its status.
func (h *WebhookHandler) routeAlert(integration db.Integration, alert normalize.NormalizedAlert) error {
	log.Printf("DEBUG: Routing alert %s with status %s", alert.AlertName, alert.Status)

	switch alert.Status {
	case normalize.StatusResolved:
		return h.routeAlertToResolveIncident(integration, alert)
	default:
		// firing, and any status the vendor didn't explicitly mark resolved
		return h.routeAlertToCreateIncident(integration, alert)
	}
}

// routeAlertToCreateIncident resolves service/assignee then creates the
// incident atomically.
func (h *WebhookHandler) routeAlertToCreateIncident(integration db.Integration, alert normalize.NormalizedAlert) error {
	serviceInfo, assigneeInfo, err := h.resolveServiceAndAssignee(integration, alert)
	if err != nil {
		log.Printf("DEBUG: Failed to resolve service/assignee: %v", err)
		// Continue with incident creation even if service resolution fails
	}

	incident, err := h.createIncidentAtomic(integration, alert, serviceInfo, assigneeInfo)
	if err != nil {
		log.Printf("ERROR: Failed to create incident atomically: %v", err)
		return fmt.Errorf("failed to create incident: %w", err)
	}

	log.Printf("SUCCESS: Created incident %s with ServiceID=%s, AssignedTo=%s",
		incident.ID, incident.ServiceID, incident.AssignedTo)
	return nil
}

// routeAlertToResolveIncident finds the matching open incident and
// resolves it, attributing the change to a deterministic system user.
func (h *WebhookHandler) routeAlertToResolveIncident(integration db.Integration, alert normalize.NormalizedAlert) error {
	incident, err := h.findIncidentByAlert(integration, alert)
	if err != nil {
		log.Printf("ERROR: Failed to find incident for resolved alert %s: %v", alert.AlertName, err)
		return fmt.Errorf("failed to find incident: %w", err)
	}

	if incident == nil {
		log.Printf("WARNING: No incident found for resolved alert %s, skipping resolution", alert.AlertName)
		return nil
	}

	note := "Alert resolved automatically"
	resolution := fmt.Sprintf("Automatically resolved by %s alert resolution", alert.AlertName)
	if alert.Description != "" {
		resolution = fmt.Sprintf("%s: %s", resolution, alert.Description)
	}

	systemUserID := db.GetSystemUserBySource(integration.Type)
	if err := h.incidentService.ResolveIncident(incident.ID, systemUserID, note, resolution); err != nil {
		log.Printf("ERROR: Failed to resolve incident %s: %v", incident.ID, err)
		return fmt.Errorf("failed to resolve incident: %w", err)
	}

	log.Printf("SUCCESS: Resolved incident %s for alert %s", incident.ID, alert.AlertName)
	return nil
}

// findIncidentByAlert implements the three-strategy lookup: fingerprint,
// then alertname/instance/job labels, then an exact title match. The
// strategies run in decreasing order of precision since fingerprints
// (when the vendor supplies one) are the only identifier guaranteed
// stable across retries.
func (h *WebhookHandler) findIncidentByAlert(integration db.Integration, alert normalize.NormalizedAlert) (*db.Incident, error) {
	if alert.Fingerprint != "" {
		if incident, err := h.incidentService.FindIncidentByFingerprint(alert.Fingerprint); err == nil && incident != nil {
			log.Printf("DEBUG: Found incident %s by fingerprint %s", incident.ID, alert.Fingerprint)
			return incident, nil
		}
	}

	alertname := alert.AlertName
	instance, _ := alert.Labels["instance"].(string)
	job, _ := alert.Labels["job"].(string)

	if alertname != "" && instance != "" {
		if incident, err := h.findIncidentByLabels(alertname, instance, job); err == nil && incident != nil {
			log.Printf("DEBUG: Found incident %s by labels (alertname=%s, instance=%s, job=%s)",
				incident.ID, alertname, instance, job)
			return incident, nil
		}
	}

	if alertname != "" {
		if incident, err := h.findIncidentByTitle(alertname); err == nil && incident != nil {
			log.Printf("DEBUG: Found incident %s by title match %s", incident.ID, alertname)
			return incident, nil
		}
	}

	log.Printf("DEBUG: No incident found for alert %s", alert.AlertName)
	return nil, nil
}

func (h *WebhookHandler) findIncidentByLabels(alertname, instance, job string) (*db.Incident, error) {
	filters := map[string]interface{}{
		"status": "triggered,acknowledged",
		"limit":  50,
	}

	incidents, err := h.incidentService.ListIncidents(filters)
	if err != nil {
		return nil, err
	}

	for _, incident := range incidents {
		if incident.Labels == nil {
			continue
		}

		an, _ := incident.Labels["alertname"].(string)
		inst, _ := incident.Labels["instance"].(string)
		jobMatch := job == ""
		if job != "" {
			if j, ok := incident.Labels["job"].(string); ok && j == job {
				jobMatch = true
			}
		}

		if an == alertname && inst == instance && jobMatch {
			return h.convertToIncident(&incident), nil
		}
	}

	return nil, nil
}

func (h *WebhookHandler) findIncidentByTitle(alertname string) (*db.Incident, error) {
	filters := map[string]interface{}{
		"search": alertname,
		"status": "triggered,acknowledged",
		"limit":  10,
	}

	incidents, err := h.incidentService.ListIncidents(filters)
	if err != nil {
		return nil, err
	}

	for _, incident := range incidents {
		if incident.Title == alertname {
			return h.convertToIncident(&incident), nil
		}
	}

	return nil, nil
}

func (h *WebhookHandler) convertToIncident(resp *db.IncidentResponse) *db.Incident {
	incident := resp.Incident
	return &incident
}

// resolveServiceAndAssignee walks the integration's ServiceIntegrations in
// stored order and returns the first whose routing conditions match the
// alert, then resolves an assignee from that service's escalation policy.
func (h *WebhookHandler) resolveServiceAndAssignee(integration db.Integration, alert normalize.NormalizedAlert) (*ResolvedServiceInfo, *ResolvedAssigneeInfo, error) {
	serviceInfo := &ResolvedServiceInfo{Found: false}
	assigneeInfo := &ResolvedAssigneeInfo{Found: false}

	serviceIntegrations, err := h.integrationService.GetIntegrationServices(integration.ID)
	if err != nil {
		return serviceInfo, assigneeInfo, fmt.Errorf("failed to get services: %w", err)
	}
	if len(serviceIntegrations) == 0 {
		return serviceInfo, assigneeInfo, nil
	}

	matchIdx := h.routingService.RouteToServiceIntegration(serviceIntegrations, alert.Severity, alert.AlertName, alert.Labels)
	if matchIdx < 0 {
		log.Printf("DEBUG: No matching service found for alert %s", alert.AlertName)
		return serviceInfo, assigneeInfo, nil
	}

	matched := serviceIntegrations[matchIdx]
	service, err := h.serviceService.GetService(matched.ServiceID)
	if err != nil {
		return serviceInfo, assigneeInfo, fmt.Errorf("failed to load matched service %s: %w", matched.ServiceID, err)
	}

	serviceInfo.Service = &service
	serviceInfo.ServiceIntegration = &matched
	serviceInfo.Found = true

	if service.EscalationPolicyID != "" && service.GroupID != "" {
		assigneeID, err := h.incidentService.GetAssigneeFromEscalationPolicy(service.EscalationPolicyID, service.GroupID)
		if err != nil {
			log.Printf("DEBUG: Failed to resolve assignee: %v", err)
		} else if assigneeID != "" {
			assigneeInfo.UserID = assigneeID
			assigneeInfo.Found = true
			assigneeInfo.Method = "escalation_policy"
		}
	}

	return serviceInfo, assigneeInfo, nil
}

// createIncidentAtomic builds the incident from the normalized alert plus
// whatever service/assignee resolution produced and persists it in one
// call to IncidentService.CreateIncident, a plain insert that is not
// wrapped in a transaction.
func (h *WebhookHandler) createIncidentAtomic(integration db.Integration, alert normalize.NormalizedAlert, serviceInfo *ResolvedServiceInfo, assigneeInfo *ResolvedAssigneeInfo) (*db.Incident, error) {
	incident := &db.Incident{
		Title:       alert.AlertName,
		Description: alert.Description,
		Severity:    alert.Severity,
		Priority:    alert.Priority,
		Status:      db.IncidentStatusTriggered,
		Source:      "webhook",
		Urgency:     db.IncidentUrgencyHigh,
	}

	if alert.Summary != "" && alert.Summary != alert.Description {
		incident.Title = alert.Summary
		if incident.Description == "" {
			incident.Description = alert.AlertName
		}
	}

	if alert.Severity == normalize.SeverityInfo || alert.Severity == normalize.SeverityWarning {
		incident.Urgency = db.IncidentUrgencyLow
	}

	if alert.Labels != nil {
		incident.Labels = alert.Labels
	} else {
		incident.Labels = make(map[string]interface{})
	}

	if alert.Fingerprint != "" {
		incident.Labels["fingerprint"] = alert.Fingerprint
	}

	if integration.OrganizationID != "" {
		incident.OrganizationID = integration.OrganizationID
	}
	if integration.ProjectID != "" {
		incident.ProjectID = integration.ProjectID
	}

	if serviceInfo.Found && serviceInfo.Service != nil {
		incident.ServiceID = serviceInfo.Service.ID
		incident.EscalationPolicyID = serviceInfo.Service.EscalationPolicyID
		incident.GroupID = serviceInfo.Service.GroupID
	}

	if assigneeInfo.Found && assigneeInfo.UserID != "" {
		incident.AssignedTo = assigneeInfo.UserID
		now := time.Now().UTC()
		incident.AssignedAt = &now
	}

	createdIncident, err := h.incidentService.CreateIncident(incident)
	if err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	log.Printf("SUCCESS: Created incident %s - ServiceID: %s, EscalationPolicyID: %s, GroupID: %s, AssignedTo: %s",
		createdIncident.ID, createdIncident.ServiceID, createdIncident.EscalationPolicyID,
		createdIncident.GroupID, createdIncident.AssignedTo)

	return createdIncident, nil
}
