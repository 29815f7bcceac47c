package normalize

import (
	"encoding/json"
	"testing"
)

func TestNormalizePrometheus(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		expectedAlert NormalizedAlert
		checkFields   []string
	}{
		{
			name: "Firing Alert with Critical severity",
			payload: `{
				"receiver": "inres-webhook",
				"status": "firing",
				"alerts": [
					{
						"status": "firing",
						"labels": {
							"alertname": "HighCPUUsage",
							"instance": "prod-web-server-01:9100",
							"job": "node-exporter",
							"severity": "critical"
						},
						"annotations": {
							"summary": "Critical CPU usage detected on production web server",
							"description": "CPU usage has been above 90% for 8 minutes"
						},
						"startsAt": "2024-01-15T10:30:00.000Z",
						"endsAt": "0001-01-01T00:00:00Z",
						"fingerprint": "7c7c4ce9f8a2b1d"
					}
				]
			}`,
			expectedAlert: NormalizedAlert{
				AlertName:   "HighCPUUsage",
				Severity:    "critical",
				Status:      "firing",
				Summary:     "Critical CPU usage detected on production web server",
				Description: "CPU usage has been above 90% for 8 minutes",
			},
			checkFields: []string{"AlertName", "Severity", "Status", "Summary", "Description"},
		},
		{
			name: "Resolved Alert",
			payload: `{
				"status": "resolved",
				"alerts": [
					{
						"status": "resolved",
						"labels": {
							"alertname": "HighCPUUsage",
							"instance": "prod-web-server-01:9100",
							"job": "node-exporter",
							"severity": "critical"
						},
						"annotations": {
							"summary": "CPU usage is back to normal",
							"description": "CPU usage has dropped below threshold"
						},
						"startsAt": "2024-01-15T10:30:00.000Z",
						"endsAt": "2024-01-15T10:45:00.000Z",
						"fingerprint": "7c7c4ce9f8a2b1d"
					}
				]
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "HighCPUUsage",
				Severity:  "critical",
				Status:    "resolved",
			},
			checkFields: []string{"AlertName", "Severity", "Status"},
		},
		{
			name: "Alert without severity defaults to warning",
			payload: `{
				"alerts": [
					{
						"status": "firing",
						"labels": {
							"alertname": "DiskSpaceLow",
							"instance": "prod-db-server-01:9100",
							"job": "node-exporter"
						},
						"annotations": {
							"summary": "Disk space is running low"
						},
						"startsAt": "2024-01-15T12:00:00.000Z",
						"fingerprint": "xyz789"
					}
				]
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "DiskSpaceLow",
				Severity:  "warning",
				Status:    "firing",
			},
			checkFields: []string{"AlertName", "Severity", "Status"},
		},
		{
			name: "Alert without fingerprint generates one from labels",
			payload: `{
				"alerts": [
					{
						"status": "firing",
						"labels": {
							"alertname": "ServiceDown",
							"instance": "prod-api-server-01:8080",
							"job": "api-service",
							"severity": "critical"
						},
						"annotations": {
							"summary": "API service is down"
						},
						"startsAt": "2024-01-15T13:00:00.000Z"
					}
				]
			}`,
			expectedAlert: NormalizedAlert{
				AlertName: "ServiceDown",
				Severity:  "critical",
				Status:    "firing",
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

			alerts := Normalize("prometheus", payload)
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

			if alert.Fingerprint == "" {
				t.Error("Fingerprint should never be empty")
			}
			if alert.StartsAt.IsZero() {
				t.Error("StartsAt should not be zero")
			}
			if alert.Priority == "" {
				t.Error("Priority should always be derived from severity")
			}
		})
	}
}
