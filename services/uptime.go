package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/phonginreallife/inres/db"
)

// UptimeService is the REST-facing CRUD layer over monitored services and
// their check history. The active polling loop lives in workers.UptimeWorker;
// this service only manages configuration and read access to past results.
type UptimeService struct {
	PG    *sql.DB
	Redis *redis.Client
}

func NewUptimeService(pg *sql.DB, redisClient *redis.Client) *UptimeService {
	return &UptimeService{PG: pg, Redis: redisClient}
}

// CreateService registers a new service for uptime monitoring.
func (s *UptimeService) CreateService(req db.UptimeService) (*db.UptimeService, error) {
	req.ID = uuid.New().String()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()
	if req.Interval <= 0 {
		req.Interval = 60
	}
	if req.Timeout <= 0 {
		req.Timeout = 10
	}
	if req.Method == "" {
		req.Method = "GET"
	}
	if req.Type == "" {
		req.Type = "http"
	}
	req.IsActive = true
	if !req.IsEnabled {
		req.IsEnabled = true
	}

	headersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode headers: %w", err)
	}

	_, err = s.PG.Exec(`
		INSERT INTO uptime_services (
			id, name, url, type, method, interval, timeout, is_active, is_enabled,
			created_at, updated_at, expected_status, expected_body, headers
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, req.ID, req.Name, req.URL, req.Type, req.Method, req.Interval, req.Timeout,
		req.IsActive, req.IsEnabled, req.CreatedAt, req.UpdatedAt, req.ExpectedStatus,
		req.ExpectedBody, string(headersJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create uptime service: %w", err)
	}

	return &req, nil
}

// ListServices returns every monitored service.
func (s *UptimeService) ListServices() ([]db.UptimeService, error) {
	rows, err := s.PG.Query(`
		SELECT id, name, url, type, method, interval, timeout, is_active, is_enabled,
			created_at, updated_at, COALESCE(expected_status, 0), COALESCE(expected_body, ''),
			COALESCE(headers, '{}')
		FROM uptime_services
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uptime services: %w", err)
	}
	defer rows.Close()

	var out []db.UptimeService
	for rows.Next() {
		svc, err := scanUptimeService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}

// GetService returns a single monitored service by id.
func (s *UptimeService) GetService(id string) (*db.UptimeService, error) {
	row := s.PG.QueryRow(`
		SELECT id, name, url, type, method, interval, timeout, is_active, is_enabled,
			created_at, updated_at, COALESCE(expected_status, 0), COALESCE(expected_body, ''),
			COALESCE(headers, '{}')
		FROM uptime_services
		WHERE id = $1
	`, id)

	svc, err := scanUptimeService(row)
	if err != nil {
		return nil, fmt.Errorf("uptime service not found: %w", err)
	}
	return &svc, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanUptimeService(row scannable) (db.UptimeService, error) {
	var svc db.UptimeService
	var headersJSON string
	err := row.Scan(&svc.ID, &svc.Name, &svc.URL, &svc.Type, &svc.Method, &svc.Interval,
		&svc.Timeout, &svc.IsActive, &svc.IsEnabled, &svc.CreatedAt, &svc.UpdatedAt,
		&svc.ExpectedStatus, &svc.ExpectedBody, &headersJSON)
	if err != nil {
		return svc, err
	}
	_ = json.Unmarshal([]byte(headersJSON), &svc.Headers)
	return svc, nil
}

// UptimeServiceStats summarizes recent check results for a monitored service.
type UptimeServiceStats struct {
	ServiceID        string  `json:"service_id"`
	TotalChecks      int     `json:"total_checks"`
	SuccessfulChecks int     `json:"successful_checks"`
	UptimePercent    float64 `json:"uptime_percent"`
	AvgResponseMs    float64 `json:"avg_response_time_ms"`
}

// GetServiceStats aggregates uptime_checks over the trailing 24 hours.
func (s *UptimeService) GetServiceStats(id string) (*UptimeServiceStats, error) {
	stats := &UptimeServiceStats{ServiceID: id}
	err := s.PG.QueryRow(`
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_up = true),
			COALESCE(AVG(response_time_ms) FILTER (WHERE is_up = true), 0)
		FROM uptime_checks
		WHERE service_id = $1 AND checked_at > NOW() - INTERVAL '24 hours'
	`, id).Scan(&stats.TotalChecks, &stats.SuccessfulChecks, &stats.AvgResponseMs)
	if err != nil {
		return nil, fmt.Errorf("failed to get uptime stats: %w", err)
	}
	if stats.TotalChecks > 0 {
		stats.UptimePercent = float64(stats.SuccessfulChecks) / float64(stats.TotalChecks) * 100
	}
	return stats, nil
}

// UptimeCheckRecord is one row of stored check history.
type UptimeCheckRecord struct {
	ID             string    `json:"id"`
	ServiceID      string    `json:"service_id"`
	IsUp           bool      `json:"is_up"`
	ResponseTimeMs int       `json:"response_time_ms"`
	StatusCode     int       `json:"status_code,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

// GetServiceHistory returns recent check results, most recent first.
func (s *UptimeService) GetServiceHistory(id string, limit int) ([]UptimeCheckRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	rows, err := s.PG.Query(`
		SELECT id, service_id, is_up, response_time_ms, COALESCE(status_code, 0),
			COALESCE(error_message, ''), checked_at
		FROM uptime_checks
		WHERE service_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get uptime history: %w", err)
	}
	defer rows.Close()

	var history []UptimeCheckRecord
	for rows.Next() {
		var r UptimeCheckRecord
		if err := rows.Scan(&r.ID, &r.ServiceID, &r.IsUp, &r.ResponseTimeMs, &r.StatusCode,
			&r.ErrorMessage, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan uptime check: %w", err)
		}
		history = append(history, r)
	}
	return history, nil
}

// UptimeDashboard is the aggregate view for the monitoring overview page.
type UptimeDashboard struct {
	TotalServices int                   `json:"total_services"`
	ServicesUp    int                   `json:"services_up"`
	ServicesDown  int                   `json:"services_down"`
	Services      []UptimeServiceStatus `json:"services"`
}

type UptimeServiceStatus struct {
	db.UptimeService
	CurrentlyUp       bool       `json:"currently_up"`
	LastCheckedAt     *time.Time `json:"last_checked_at,omitempty"`
	UptimePercent24h  float64    `json:"uptime_percent_24h"`
}

// GetUptimeDashboard returns current status for every monitored service.
func (s *UptimeService) GetUptimeDashboard() (*UptimeDashboard, error) {
	services, err := s.ListServices()
	if err != nil {
		return nil, err
	}

	dashboard := &UptimeDashboard{TotalServices: len(services)}
	for _, svc := range services {
		status := UptimeServiceStatus{UptimeService: svc}

		var lastUp sql.NullBool
		var lastChecked sql.NullTime
		_ = s.PG.QueryRow(`
			SELECT is_up, checked_at FROM uptime_checks
			WHERE service_id = $1 ORDER BY checked_at DESC LIMIT 1
		`, svc.ID).Scan(&lastUp, &lastChecked)

		if lastUp.Valid {
			status.CurrentlyUp = lastUp.Bool
			if lastUp.Bool {
				dashboard.ServicesUp++
			} else {
				dashboard.ServicesDown++
			}
		}
		if lastChecked.Valid {
			status.LastCheckedAt = &lastChecked.Time
		}

		if stats, err := s.GetServiceStats(svc.ID); err == nil {
			status.UptimePercent24h = stats.UptimePercent
		}

		dashboard.Services = append(dashboard.Services, status)
	}

	return dashboard, nil
}
