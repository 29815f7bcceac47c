package models

import "time"

// AlertManagerWebhook is the payload Prometheus Alertmanager posts to a
// configured webhook receiver.
type AlertManagerWebhook struct {
	Receiver          string              `json:"receiver"`
	Status            string              `json:"status"` // firing, resolved
	Alerts            []AlertManagerAlert `json:"alerts"`
	GroupLabels       map[string]string   `json:"groupLabels"`
	CommonLabels      map[string]string   `json:"commonLabels"`
	CommonAnnotations map[string]string   `json:"commonAnnotations"`
	ExternalURL       string              `json:"externalURL"`
	Version           string              `json:"version"`
	GroupKey          string              `json:"groupKey"`
}

// AlertManagerAlert is a single alert within an AlertManagerWebhook payload.
type AlertManagerAlert struct {
	Status       string            `json:"status"` // firing, resolved
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       time.Time         `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
}
