package repository

import (
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ruanvls/zapcobranca/internal/models"
)

// ConfigRepository handles the single collection_config row. The row is
// read on every receipt and every sweep, so it is cached in memory and the
// cache is dropped on update.
type ConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger

	mu     sync.RWMutex
	cached *models.CollectionConfig
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *sql.DB, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{db: db, logger: logger}
}

// Get returns the collection config, or (nil, nil) when none has been set.
func (r *ConfigRepository) Get() (*models.CollectionConfig, error) {
	r.mu.RLock()
	if r.cached != nil {
		cfg := *r.cached
		r.mu.RUnlock()
		return &cfg, nil
	}
	r.mu.RUnlock()

	var cfg models.CollectionConfig
	err := r.db.QueryRow(`
		SELECT id, pix_key, holder_name, reminder_lead_days, overdue_grace_days,
		       audit_group_id, updated_at
		FROM collection_config
		WHERE id = 1
	`).Scan(
		&cfg.ID,
		&cfg.PixKey,
		&cfg.HolderName,
		&cfg.ReminderLeadDays,
		&cfg.OverdueGraceDays,
		&cfg.AuditGroupID,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load collection config: %w", err)
	}

	r.mu.Lock()
	copied := cfg
	r.cached = &copied
	r.mu.Unlock()

	return &cfg, nil
}

// Upsert writes the singleton row and invalidates the cache.
func (r *ConfigRepository) Upsert(cfg *models.CollectionConfig) error {
	_, err := r.db.Exec(`
		INSERT INTO collection_config (id, pix_key, holder_name, reminder_lead_days,
		                               overdue_grace_days, audit_group_id, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			pix_key = excluded.pix_key,
			holder_name = excluded.holder_name,
			reminder_lead_days = excluded.reminder_lead_days,
			overdue_grace_days = excluded.overdue_grace_days,
			audit_group_id = excluded.audit_group_id,
			updated_at = CURRENT_TIMESTAMP
	`, cfg.PixKey, cfg.HolderName, cfg.ReminderLeadDays, cfg.OverdueGraceDays, cfg.AuditGroupID)
	if err != nil {
		r.logger.Error("Failed to upsert collection config", zap.Error(err))
		return fmt.Errorf("failed to upsert collection config: %w", err)
	}

	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
	return nil
}
