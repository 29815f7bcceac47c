// Package normalize turns a vendor-specific monitoring webhook payload into
// a single NormalizedAlert shape the rest of the system understands.
//
// The teacher's handlers/webhook.go paired a typed struct (PrometheusWebhook,
// DatadogWebhook, ...) with a ToProcessedAlert method and a second,
// map-driven "legacy" function it fell back to when the typed unmarshal
// failed. In practice every vendor's wire format is loose enough (optional
// fields, vendor dashboards that send slightly different shapes) that the
// map-driven path did all the real work; the typed path only added a
// second struct definition to keep in sync. Normalize collapses that pair
// into one function per vendor, written against the payload map directly,
// and always derives Priority from Severity the same way regardless of
// which vendor native field (if any) supplied it.
package normalize

import (
	"fmt"
	"strings"
	"time"
)

// Status values a NormalizedAlert can carry.
const (
	StatusFiring   = "firing"
	StatusResolved = "resolved"
)

// Severity values, ordered from least to most urgent.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Priority values, P1 (highest) through P5 (lowest).
const (
	PriorityP1 = "P1"
	PriorityP2 = "P2"
	PriorityP3 = "P3"
	PriorityP4 = "P4"
	PriorityP5 = "P5"
)

// NormalizedAlert is the canonical shape every vendor payload reduces to.
type NormalizedAlert struct {
	AlertName   string
	Severity    string
	Status      string // firing, resolved
	Summary     string
	Description string
	Labels      map[string]interface{}
	Annotations map[string]interface{}
	StartsAt    time.Time
	EndsAt      *time.Time
	Fingerprint string // stable across retries, used for dedup
	Priority    string // P1..P5, derived from Severity unless the vendor supplies one
}

// Normalize dispatches a raw webhook payload to the adapter for
// integrationType and returns the alerts it contains. Unknown integration
// types are handled by the generic adapter, matching the teacher's
// default case.
func Normalize(integrationType string, payload map[string]interface{}) []NormalizedAlert {
	switch integrationType {
	case "prometheus":
		return normalizePrometheus(payload)
	case "datadog":
		return normalizeDatadog(payload)
	case "grafana":
		return normalizeGrafana(payload)
	case "pagerduty":
		return normalizePagerDuty(payload)
	case "coralogix":
		return normalizeCoralogix(payload)
	case "aws":
		return normalizeAWS(payload)
	default:
		return normalizeGeneric(payload)
	}
}

func normalizePrometheus(payload map[string]interface{}) []NormalizedAlert {
	var alerts []NormalizedAlert

	alertsData, _ := payload["alerts"].([]interface{})
	for _, raw := range alertsData {
		alertMap, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		labels := getMapFromMap(alertMap, "labels")
		alertname := getStringFromMap(alertMap, "labels.alertname", "unknown")
		instance := getStringFromMap(alertMap, "labels.instance", "")
		job := getStringFromMap(alertMap, "labels.job", "")

		fingerprint := getStringFromMap(alertMap, "fingerprint", "")
		if fingerprint == "" {
			fingerprint = fmt.Sprintf("%s-%s-%s", alertname, instance, job)
		}

		severity := getStringFromMap(alertMap, "labels.severity", SeverityWarning)
		alert := NormalizedAlert{
			AlertName:   alertname,
			Severity:    severity,
			Status:      prometheusStatus(getStringFromMap(alertMap, "status", StatusFiring)),
			Summary:     getStringFromMap(alertMap, "annotations.summary", ""),
			Description: getStringFromMap(alertMap, "annotations.description", ""),
			Labels:      labels,
			Annotations: getMapFromMap(alertMap, "annotations"),
			Fingerprint: fingerprint,
			Priority:    PriorityFromSeverity(severity),
		}

		if startsAt := getStringFromMap(alertMap, "startsAt", ""); startsAt != "" {
			if t, err := time.Parse(time.RFC3339, startsAt); err == nil {
				alert.StartsAt = t
			}
		}
		if endsAt := getStringFromMap(alertMap, "endsAt", ""); endsAt != "" {
			if t, err := time.Parse(time.RFC3339, endsAt); err == nil {
				alert.EndsAt = &t
			}
		}

		alerts = append(alerts, alert)
	}

	return alerts
}

func prometheusStatus(raw string) string {
	if raw == StatusResolved {
		return StatusResolved
	}
	return StatusFiring
}

func normalizeDatadog(payload map[string]interface{}) []NormalizedAlert {
	title := getStringFromMap(payload, "title", "")
	transition := getStringFromMap(payload, "transition", "")
	if transition == "" {
		transition = getStringFromMap(payload, "alert_transition", "")
	}
	priority := getStringFromMap(payload, "alert_priority", "")

	severity := SeverityWarning
	if strings.Contains(strings.ToLower(transition), "recovered") {
		severity = SeverityInfo
	} else if priority != "" {
		severity = datadogPriorityToSeverity(priority)
	}

	alert := NormalizedAlert{
		AlertName:   title,
		Severity:    severity,
		Status:      datadogStatus(transition),
		Summary:     title,
		Description: getStringFromMap(payload, "body", ""),
		Labels: map[string]interface{}{
			"source":         "datadog",
			"event_id":       getStringFromMap(payload, "id", ""),
			"event_type":     getStringFromMap(payload, "event_type", ""),
			"alert_priority": priority,
		},
		Annotations: map[string]interface{}{
			"org_id":       getStringFromMap(payload, "org.id", ""),
			"org_name":     getStringFromMap(payload, "org.name", ""),
			"last_updated": getStringFromMap(payload, "last_updated", ""),
		},
		StartsAt: parseDatadogTimestamp(payload),
		Priority: priority,
	}
	if alert.Priority == "" || !isValidPriority(alert.Priority) {
		alert.Priority = PriorityFromSeverity(severity)
	}
	if strings.Contains(strings.ToLower(transition), "recovered") {
		alert.Priority = PriorityP5
	}

	return []NormalizedAlert{alert}
}

func datadogStatus(transition string) string {
	if strings.Contains(strings.ToLower(transition), "recovered") {
		return StatusResolved
	}
	return StatusFiring
}

// datadogPriorityToSeverity maps Datadog's P1..P5 alert_priority to severity.
func datadogPriorityToSeverity(priority string) string {
	switch strings.ToUpper(strings.TrimSpace(priority)) {
	case PriorityP1:
		return SeverityCritical
	case PriorityP2:
		return SeverityHigh
	case PriorityP3:
		return SeverityWarning
	case PriorityP4:
		return SeverityLow()
	case PriorityP5:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// SeverityLow is Datadog's P4 tier; kept distinct from warning so the
// priority round-trip (severity -> priority) still lands on P4.
func SeverityLow() string { return "low" }

func normalizeGrafana(payload map[string]interface{}) []NormalizedAlert {
	state := getStringFromMap(payload, "state", "alerting")
	severity := grafanaSeverity(state)

	alert := NormalizedAlert{
		AlertName:   getStringFromMap(payload, "ruleName", "grafana-alert"),
		Severity:    severity,
		Status:      grafanaStatus(state),
		Summary:     getStringFromMap(payload, "message", ""),
		Description: getStringFromMap(payload, "title", ""),
		Labels: map[string]interface{}{
			"source":    "grafana",
			"dashboard": getStringFromMap(payload, "dashboardId", ""),
			"panel":     getStringFromMap(payload, "panelId", ""),
		},
		Annotations: map[string]interface{}{
			"grafana_url": getStringFromMap(payload, "ruleUrl", ""),
			"image_url":   getStringFromMap(payload, "imageUrl", ""),
		},
		StartsAt: time.Now(),
		Priority: PriorityFromSeverity(severity),
	}

	return []NormalizedAlert{alert}
}

func grafanaSeverity(state string) string {
	switch state {
	case "alerting":
		return SeverityCritical
	case "pending":
		return SeverityWarning
	case "ok":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

func grafanaStatus(state string) string {
	switch state {
	case "alerting", "pending":
		return StatusFiring
	case "ok":
		return StatusResolved
	default:
		return StatusFiring
	}
}

func normalizeAWS(payload map[string]interface{}) []NormalizedAlert {
	// AWS SNS wraps the CloudWatch alarm JSON inside the Message field.
	message := getStringFromMap(payload, "Message", "")
	if message != "" {
		var inner map[string]interface{}
		if err := unmarshalJSONString(message, &inner); err == nil {
			payload = inner
		}
	}

	state := getStringFromMap(payload, "NewStateValue", "ALARM")
	severity := awsSeverity(state)

	alert := NormalizedAlert{
		AlertName:   getStringFromMap(payload, "AlarmName", "aws-alarm"),
		Severity:    severity,
		Status:      awsStatus(state),
		Summary:     getStringFromMap(payload, "AlarmDescription", ""),
		Description: getStringFromMap(payload, "NewStateReason", ""),
		Labels: map[string]interface{}{
			"source":    "aws",
			"region":    getStringFromMap(payload, "Region", ""),
			"namespace": getStringFromMap(payload, "Trigger.Namespace", ""),
		},
		Annotations: map[string]interface{}{
			"account_id": getStringFromMap(payload, "AWSAccountId", ""),
			"timestamp":  getStringFromMap(payload, "StateChangeTime", ""),
		},
		StartsAt: time.Now(),
		Priority: PriorityFromSeverity(severity),
	}

	return []NormalizedAlert{alert}
}

func awsSeverity(state string) string {
	switch state {
	case "ALARM":
		return SeverityCritical
	case "INSUFFICIENT_DATA":
		return SeverityWarning
	case "OK":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

func awsStatus(state string) string {
	switch state {
	case "ALARM", "INSUFFICIENT_DATA":
		return StatusFiring
	case "OK":
		return StatusResolved
	default:
		return StatusFiring
	}
}

func normalizePagerDuty(payload map[string]interface{}) []NormalizedAlert {
	event, _ := payload["event"].(map[string]interface{})
	if event == nil {
		event = payload
	}
	data, _ := event["data"].(map[string]interface{})
	if data == nil {
		data = event
	}

	status := getStringFromMap(data, "status", "triggered")
	eventType := getStringFromMap(event, "event_type", "")
	incidentKey := getStringFromMap(data, "incident_key", "")
	id := getStringFromMap(data, "id", "")

	fingerprint := incidentKey
	if fingerprint == "" {
		fingerprint = id
	}

	urgency := getStringFromMap(data, "urgency", "high")
	severity := pagerDutyPriorityName(data)
	if severity == "" {
		severity = pagerDutyUrgencyToSeverity(urgency)
	}

	description := getStringFromMap(data, "description", "")
	if details := getMapFromMap(data, "custom_details"); len(details) > 0 {
		description = fmt.Sprintf("%s %v", description, details)
	}

	alert := NormalizedAlert{
		AlertName:   getStringFromMap(data, "title", "pagerduty-alert"),
		Severity:    severity,
		Status:      pagerDutyStatus(status, eventType),
		Summary:     getStringFromMap(data, "title", ""),
		Description: strings.TrimSpace(description),
		Fingerprint: fingerprint,
		Labels: map[string]interface{}{
			"source":       "pagerduty",
			"incident_key": incidentKey,
			"urgency":      urgency,
		},
		Annotations: map[string]interface{}{
			"html_url": getStringFromMap(data, "html_url", ""),
		},
		StartsAt: time.Now(),
		Priority: PriorityFromSeverity(severity),
	}

	return []NormalizedAlert{alert}
}

func pagerDutyStatus(status, eventType string) string {
	if status == "resolved" || strings.Contains(eventType, "resolve") {
		return StatusResolved
	}
	return StatusFiring
}

func pagerDutyUrgencyToSeverity(urgency string) string {
	switch urgency {
	case "high":
		return SeverityHigh
	case "low":
		return SeverityLow()
	default:
		return SeverityWarning
	}
}

func pagerDutyPriorityName(data map[string]interface{}) string {
	priority := getMapFromMap(data, "priority")
	if name, ok := priority["name"].(string); ok {
		return strings.ToLower(name)
	}
	return ""
}

func normalizeCoralogix(payload map[string]interface{}) []NormalizedAlert {
	alertName := getStringFromMap(payload, "alert_name", "coralogix-alert")
	alertSeverity := getStringFromMap(payload, "alert_severity", "Warning")
	alertAction := getStringFromMap(payload, "alert_action", "trigger")
	alertID := getStringFromMap(payload, "alert_id", "")
	application := getStringFromMap(payload, "application", "")
	subsystem := getStringFromMap(payload, "subsystem", "")

	fingerprint := alertID
	if fingerprint == "" {
		fingerprint = fmt.Sprintf("coralogix-%s-%s-%s", alertName, application, subsystem)
	}

	severity := coralogixSeverity(alertSeverity)

	alert := NormalizedAlert{
		AlertName:   alertName,
		Severity:    severity,
		Status:      coralogixStatus(alertAction),
		Summary:     alertName,
		Description: getStringFromMap(payload, "description", ""),
		Fingerprint: fingerprint,
		Labels: map[string]interface{}{
			"source":      "coralogix",
			"alert_id":    alertID,
			"application": application,
			"subsystem":   subsystem,
		},
		Annotations: map[string]interface{}{
			"alert_url": getStringFromMap(payload, "alert_url", ""),
		},
		StartsAt: time.Now(),
		Priority: PriorityFromSeverity(severity),
	}

	return []NormalizedAlert{alert}
}

func coralogixStatus(action string) string {
	switch strings.ToLower(action) {
	case "resolve", "resolved", "recovery", "ok":
		return StatusResolved
	default:
		return StatusFiring
	}
}

func coralogixSeverity(severity string) string {
	switch strings.ToLower(severity) {
	case "critical":
		return SeverityCritical
	case "error":
		return SeverityHigh
	case "warning":
		return SeverityWarning
	case "info":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

func normalizeGeneric(payload map[string]interface{}) []NormalizedAlert {
	severity := getStringFromMap(payload, "severity", SeverityWarning)

	alert := NormalizedAlert{
		AlertName:   getStringFromMap(payload, "alert_name", "generic-alert"),
		Severity:    severity,
		Status:      getStringFromMap(payload, "status", StatusFiring),
		Summary:     getStringFromMap(payload, "summary", ""),
		Description: getStringFromMap(payload, "description", ""),
		Labels:      getMapFromMap(payload, "labels"),
		Annotations: getMapFromMap(payload, "annotations"),
		StartsAt:    time.Now(),
		Fingerprint: getStringFromMap(payload, "fingerprint", ""),
		Priority:    PriorityFromSeverity(severity),
	}

	return []NormalizedAlert{alert}
}

// PriorityFromSeverity applies the same severity -> priority conversion
// for every vendor, so a NormalizedAlert's Priority always reflects its
// Severity even when the vendor never sent a native priority field.
func PriorityFromSeverity(severity string) string {
	switch strings.ToLower(severity) {
	case SeverityCritical:
		return PriorityP1
	case SeverityHigh:
		return PriorityP2
	case SeverityWarning:
		return PriorityP3
	case "low":
		return PriorityP4
	case SeverityInfo:
		return PriorityP5
	default:
		return PriorityP3
	}
}

func isValidPriority(p string) bool {
	switch strings.ToUpper(p) {
	case PriorityP1, PriorityP2, PriorityP3, PriorityP4, PriorityP5:
		return true
	default:
		return false
	}
}
