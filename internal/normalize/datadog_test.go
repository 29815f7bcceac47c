package normalize

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeDatadog(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		expectedAlert NormalizedAlert
		checkFields   []string
	}{
		{
			name: "Triggered Alert with P1 (Critical) priority",
			payload: `{
				"id": "8306077573749414142",
				"last_updated": "1759343584000",
				"event_type": "query_alert_monitor",
				"title": "[P1] [Triggered] High tracking",
				"date": "1759343584000",
				"org": {"id": "352347", "name": "vng"},
				"body": "We get high datadog.event.tracking.intakev2.audit.bytes",
				"transition": "Triggered",
				"alert_priority": "P1"
			}`,
			expectedAlert: NormalizedAlert{
				AlertName:   "[P1] [Triggered] High tracking",
				Severity:    "critical",
				Status:      "firing",
				Summary:     "[P1] [Triggered] High tracking",
				Description: "We get high datadog.event.tracking.intakev2.audit.bytes",
			},
			checkFields: []string{"AlertName", "Severity", "Status", "Summary", "Description"},
		},
		{
			name: "Triggered Alert with P2 (High) priority",
			payload: `{
				"id": "8306082202796025694",
				"title": "[P2] [Triggered] Memory usage alert",
				"date": "1759343824000",
				"body": "Memory usage is above threshold",
				"transition": "Triggered",
				"alert_priority": "P2"
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "[P2] [Triggered] Memory usage alert",
				Severity:  "high",
				Status:    "firing",
			},
			checkFields: []string{"AlertName", "Severity", "Status"},
		},
		{
			name: "Triggered Alert without priority defaults to warning",
			payload: `{
				"id": "8306082202796025696",
				"title": "[Triggered] Network alert",
				"date": "1759343824000",
				"body": "Network issue detected",
				"transition": "Triggered"
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "[Triggered] Network alert",
				Severity:  "warning",
				Status:    "firing",
			},
			checkFields: []string{"AlertName", "Severity", "Status"},
		},
		{
			name: "Recovered alert always reports info severity",
			payload: `{
				"id": "8306079182530772649",
				"title": "[P1] [Recovered] High tracking",
				"date": "1759343704000",
				"body": "We get high datadog.event.tracking.intakev2.audit.bytes",
				"transition": "Recovered",
				"alert_priority": "P1"
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "[P1] [Recovered] High tracking",
				Severity:  "info",
				Status:    "resolved",
			},
			checkFields: []string{"AlertName", "Severity", "Status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(tt.payload), &payload); err != nil {
				t.Fatalf("Failed to unmarshal payload: %v", err)
			}

			alerts := Normalize("datadog", payload)
			if len(alerts) != 1 {
				t.Fatalf("Expected 1 alert, got %d", len(alerts))
			}
			alert := alerts[0]

			for _, field := range tt.checkFields {
				switch field {
				case "AlertName":
					if alert.AlertName != tt.expectedAlert.AlertName {
						t.Errorf("AlertName = %v, want %v", alert.AlertName, tt.expectedAlert.AlertName)
					}
				case "Severity":
					if alert.Severity != tt.expectedAlert.Severity {
						t.Errorf("Severity = %v, want %v", alert.Severity, tt.expectedAlert.Severity)
					}
				case "Status":
					if alert.Status != tt.expectedAlert.Status {
						t.Errorf("Status = %v, want %v", alert.Status, tt.expectedAlert.Status)
					}
				case "Summary":
					if alert.Summary != tt.expectedAlert.Summary {
						t.Errorf("Summary = %v, want %v", alert.Summary, tt.expectedAlert.Summary)
					}
				case "Description":
					if alert.Description != tt.expectedAlert.Description {
						t.Errorf("Description = %v, want %v", alert.Description, tt.expectedAlert.Description)
					}
				}
			}

			if alert.Labels["source"] != "datadog" {
				t.Errorf("Labels[source] = %v, want datadog", alert.Labels["source"])
			}
			if alert.StartsAt.IsZero() {
				t.Error("StartsAt should not be zero")
			}
		})
	}
}

func TestParseDatadogTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]interface{}
		expected time.Time
	}{
		{
			name:     "Parse from date field",
			payload:  map[string]interface{}{"date": "1759343584000"},
			expected: time.UnixMilli(1759343584000),
		},
		{
			name:     "Prefer date over last_updated when both present",
			payload:  map[string]interface{}{"date": "1759343584000", "last_updated": "1759343704000"},
			expected: time.UnixMilli(1759343584000),
		},
		{
			name:    "Fallback to current time when absent",
			payload: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseDatadogTimestamp(tt.payload)

			if tt.name == "Fallback to current time when absent" {
				if result.IsZero() {
					t.Error("Expected non-zero time for fallback")
				}
				return
			}
			if !result.Equal(tt.expected) {
				t.Errorf("parseDatadogTimestamp() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDatadogPriorityToSeverity(t *testing.T) {
	tests := []struct {
		priority string
		expected string
	}{
		{"P1", SeverityCritical},
		{"P2", SeverityHigh},
		{"P3", SeverityWarning},
		{"P4", SeverityLow()},
		{"P5", SeverityInfo},
		{"", SeverityWarning},
		{"p1", SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.priority, func(t *testing.T) {
			if got := datadogPriorityToSeverity(tt.priority); got != tt.expected {
				t.Errorf("datadogPriorityToSeverity(%q) = %v, want %v", tt.priority, got, tt.expected)
			}
		})
	}
}

func TestGetStringFromMapNested(t *testing.T) {
	payload := map[string]interface{}{
		"org":   map[string]interface{}{"id": "352347", "name": "vng"},
		"title": "Test Alert",
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"simple field", "title", "Test Alert"},
		{"nested field org.id", "org.id", "352347"},
		{"nested field org.name", "org.name", "vng"},
		{"missing field", "missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getStringFromMap(payload, tt.path, ""); got != tt.expected {
				t.Errorf("getStringFromMap(%s) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}
