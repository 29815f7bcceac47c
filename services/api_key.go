package services

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phonginreallife/inres/db"
)

// APIKeyService manages programmatic API keys used by monitoring integrations
// and automation clients to authenticate against the webhook and REST surface.
type APIKeyService struct {
	PG *sql.DB
}

func NewAPIKeyService(pg *sql.DB) *APIKeyService {
	return &APIKeyService{PG: pg}
}

const apiKeyPrefix = "inres_"

// generateAPIKey returns the plaintext key shown once at creation time, and
// its SHA-256 hash which is the only copy persisted to the database.
func generateAPIKey() (plaintext string, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	plaintext = apiKeyPrefix + hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(plaintext))
	hash = hex.EncodeToString(sum[:])
	return plaintext, hash, nil
}

func hashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// CreateAPIKey issues a new API key for a user, optionally scoped to a group.
func (s *APIKeyService) CreateAPIKey(req db.CreateAPIKeyRequest, userID, orgID string) (*db.APIKey, error) {
	plaintext, hash, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	permissions := req.Permissions
	if len(permissions) == 0 {
		permissions = []string{"alerts:write"}
	}
	permissionsJSON, err := json.Marshal(permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permissions: %w", err)
	}

	rateLimitPerHour := req.RateLimitPerHour
	if rateLimitPerHour <= 0 {
		rateLimitPerHour = 1000
	}
	rateLimitPerDay := req.RateLimitPerDay
	if rateLimitPerDay <= 0 {
		rateLimitPerDay = 10000
	}
	environment := req.Environment
	if environment == "" {
		environment = "prod"
	}

	key := &db.APIKey{
		ID:               uuid.New().String(),
		UserID:           userID,
		GroupID:          req.GroupID,
		Name:             req.Name,
		APIKey:           plaintext,
		APIKeyHash:       hash,
		Permissions:      permissions,
		IsActive:         true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
		ExpiresAt:        req.ExpiresAt,
		RateLimitPerHour: rateLimitPerHour,
		RateLimitPerDay:  rateLimitPerDay,
		Description:      req.Description,
		Environment:      environment,
		CreatedBy:        userID,
		OrganizationID:   orgID,
	}

	_, err = s.PG.Exec(`
		INSERT INTO api_keys (
			id, user_id, group_id, name, api_key_hash, permissions, is_active,
			created_at, updated_at, expires_at, rate_limit_per_hour, rate_limit_per_day,
			description, environment, created_by, organization_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, key.ID, key.UserID, nullableString(key.GroupID), key.Name, key.APIKeyHash, string(permissionsJSON),
		key.IsActive, key.CreatedAt, key.UpdatedAt, key.ExpiresAt, key.RateLimitPerHour, key.RateLimitPerDay,
		key.Description, key.Environment, nullableString(key.CreatedBy), nullableString(key.OrganizationID))
	if err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	return key, nil
}

// ListAPIKeys returns API keys owned by a user. Plaintext keys are never
// returned once past creation.
func (s *APIKeyService) ListAPIKeys(userID string) ([]db.APIKey, error) {
	rows, err := s.PG.Query(`
		SELECT id, user_id, COALESCE(group_id, ''), name, permissions, is_active,
			last_used_at, created_at, updated_at, expires_at, rate_limit_per_hour,
			rate_limit_per_day, total_requests, total_alerts_created, description,
			environment, COALESCE(organization_id, '')
		FROM api_keys
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []db.APIKey
	for rows.Next() {
		var k db.APIKey
		var permissionsJSON string
		var lastUsedAt, expiresAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.UserID, &k.GroupID, &k.Name, &permissionsJSON, &k.IsActive,
			&lastUsedAt, &k.CreatedAt, &k.UpdatedAt, &expiresAt, &k.RateLimitPerHour,
			&k.RateLimitPerDay, &k.TotalRequests, &k.TotalAlertsCreated, &k.Description,
			&k.Environment, &k.OrganizationID); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		_ = json.Unmarshal([]byte(permissionsJSON), &k.Permissions)
		if lastUsedAt.Valid {
			k.LastUsedAt = &lastUsedAt.Time
		}
		if expiresAt.Valid {
			k.ExpiresAt = &expiresAt.Time
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// GetAPIKey returns a single key, scoped to its owner.
func (s *APIKeyService) GetAPIKey(id, userID string) (*db.APIKey, error) {
	var k db.APIKey
	var permissionsJSON string
	var lastUsedAt, expiresAt sql.NullTime
	err := s.PG.QueryRow(`
		SELECT id, user_id, COALESCE(group_id, ''), name, permissions, is_active,
			last_used_at, created_at, updated_at, expires_at, rate_limit_per_hour,
			rate_limit_per_day, total_requests, total_alerts_created, description,
			environment, COALESCE(organization_id, '')
		FROM api_keys
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&k.ID, &k.UserID, &k.GroupID, &k.Name, &permissionsJSON, &k.IsActive,
		&lastUsedAt, &k.CreatedAt, &k.UpdatedAt, &expiresAt, &k.RateLimitPerHour,
		&k.RateLimitPerDay, &k.TotalRequests, &k.TotalAlertsCreated, &k.Description,
		&k.Environment, &k.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("api key not found: %w", err)
	}
	_ = json.Unmarshal([]byte(permissionsJSON), &k.Permissions)
	if lastUsedAt.Valid {
		k.LastUsedAt = &lastUsedAt.Time
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
	}
	return &k, nil
}

// UpdateAPIKey updates the mutable fields of a key (name, description, permissions, active state).
func (s *APIKeyService) UpdateAPIKey(id, userID string, req db.UpdateAPIKeyRequest) (*db.APIKey, error) {
	if req.Name != nil && *req.Name != "" {
		if _, err := s.PG.Exec(`UPDATE api_keys SET name = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, *req.Name, id, userID); err != nil {
			return nil, fmt.Errorf("failed to update api key name: %w", err)
		}
	}
	if req.Description != nil && *req.Description != "" {
		if _, err := s.PG.Exec(`UPDATE api_keys SET description = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, *req.Description, id, userID); err != nil {
			return nil, fmt.Errorf("failed to update api key description: %w", err)
		}
	}
	if len(req.Permissions) > 0 {
		permissionsJSON, err := json.Marshal(req.Permissions)
		if err != nil {
			return nil, fmt.Errorf("failed to encode permissions: %w", err)
		}
		if _, err := s.PG.Exec(`UPDATE api_keys SET permissions = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, string(permissionsJSON), id, userID); err != nil {
			return nil, fmt.Errorf("failed to update api key permissions: %w", err)
		}
	}
	if req.IsActive != nil {
		if _, err := s.PG.Exec(`UPDATE api_keys SET is_active = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, *req.IsActive, id, userID); err != nil {
			return nil, fmt.Errorf("failed to update api key status: %w", err)
		}
	}
	return s.GetAPIKey(id, userID)
}

// DeleteAPIKey permanently revokes a key.
func (s *APIKeyService) DeleteAPIKey(id, userID string) error {
	result, err := s.PG.Exec(`DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("api key not found")
	}
	return nil
}

// RegenerateAPIKey rotates the secret for an existing key while preserving its id and permissions.
func (s *APIKeyService) RegenerateAPIKey(id, userID string) (*db.APIKey, error) {
	plaintext, hash, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	result, err := s.PG.Exec(`
		UPDATE api_keys SET api_key_hash = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, hash, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate api key: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, fmt.Errorf("api key not found")
	}

	key, err := s.GetAPIKey(id, userID)
	if err != nil {
		return nil, err
	}
	key.APIKey = plaintext
	return key, nil
}

// GetAPIKeyStats returns usage statistics for the keys owned by a user, backed
// by the api_key_stats view.
func (s *APIKeyService) GetAPIKeyStats(userID string) ([]db.APIKeyStats, error) {
	rows, err := s.PG.Query(`
		SELECT id, name, user_id, COALESCE(user_name, ''), COALESCE(user_email, ''),
			COALESCE(group_id, ''), COALESCE(group_name, ''), environment, is_active,
			created_at, last_used_at, total_requests, total_alerts_created,
			rate_limit_per_hour, rate_limit_per_day
		FROM api_key_stats
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get api key stats: %w", err)
	}
	defer rows.Close()

	var stats []db.APIKeyStats
	for rows.Next() {
		var st db.APIKeyStats
		var lastUsedAt sql.NullTime
		if err := rows.Scan(&st.ID, &st.Name, &st.UserID, &st.UserName, &st.UserEmail,
			&st.GroupID, &st.GroupName, &st.Environment, &st.IsActive,
			&st.CreatedAt, &lastUsedAt, &st.TotalRequests, &st.TotalAlertsCreated,
			&st.RateLimitPerHour, &st.RateLimitPerDay); err != nil {
			return nil, fmt.Errorf("failed to scan api key stats: %w", err)
		}
		if lastUsedAt.Valid {
			st.LastUsedAt = &lastUsedAt.Time
		}
		stats = append(stats, st)
	}
	return stats, nil
}

// ValidateAPIKey looks up an active, non-expired key by its plaintext value.
// Only the hash is ever compared; the plaintext never touches storage.
func (s *APIKeyService) ValidateAPIKey(plaintext string) (*db.APIKey, error) {
	hash := hashAPIKey(plaintext)

	var k db.APIKey
	var permissionsJSON string
	var expiresAt sql.NullTime
	err := s.PG.QueryRow(`
		SELECT id, user_id, COALESCE(group_id, ''), name, permissions, is_active,
			created_at, updated_at, expires_at, rate_limit_per_hour, rate_limit_per_day,
			COALESCE(organization_id, '')
		FROM api_keys
		WHERE api_key_hash = $1 AND is_active = true
	`, hash).Scan(&k.ID, &k.UserID, &k.GroupID, &k.Name, &permissionsJSON, &k.IsActive,
		&k.CreatedAt, &k.UpdatedAt, &expiresAt, &k.RateLimitPerHour, &k.RateLimitPerDay,
		&k.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid api key")
	}
	if expiresAt.Valid {
		k.ExpiresAt = &expiresAt.Time
		if time.Now().After(expiresAt.Time) {
			return nil, fmt.Errorf("api key expired")
		}
	}
	_ = json.Unmarshal([]byte(permissionsJSON), &k.Permissions)
	return &k, nil
}

// UpdateLastUsed records that a key was just used to authenticate a request.
// Called asynchronously from the auth middleware so it never adds latency to
// the request path.
func (s *APIKeyService) UpdateLastUsed(apiKeyID string) error {
	_, err := s.PG.Exec(`
		UPDATE api_keys
		SET last_used_at = NOW(), total_requests = total_requests + 1
		WHERE id = $1
	`, apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to update api key last_used_at: %w", err)
	}
	return nil
}

// IncrementAlertsCreated bumps the lifetime alert counter for a key, used by
// webhook ingestion once an alert has been successfully stored.
func (s *APIKeyService) IncrementAlertsCreated(apiKeyID string) error {
	_, err := s.PG.Exec(`UPDATE api_keys SET total_alerts_created = total_alerts_created + 1 WHERE id = $1`, apiKeyID)
	return err
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
