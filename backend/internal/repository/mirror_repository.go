/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 13:05:52
 * @FilePath: \pssuai-admin\backend\internal\repository\mirror_repository.go
 * @LastEditTime: 2025-10-24 10:11:08
 */
package repository

import (
	"context"
	"errors"
	"fmt"

	"pssuai-admin/backend/internal/domain/mirror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUnknownTable is returned when RecentRows is asked for a table it does not mirror.
var ErrUnknownTable = errors.New("unknown mirror table")

// upsertBatchSize keeps each INSERT well under SQLite's bound-variable limit.
const upsertBatchSize = 500

var accessEventColumns = []string{"name", "phone", "unit", "device_id", "event_time", "raw_json", "updated_at"}

var qrEventColumns = []string{"visitor_name", "visitor_phone", "host_unit", "qr_id", "event_time", "raw_json", "updated_at"}

// MirrorRepository keeps the local copy of the upstream event feeds.
type MirrorRepository struct {
	db *gorm.DB
}

// NewMirrorRepository builds the repository on a pooled handle.
func NewMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// UpsertAccessEvents writes rows replace-on-conflict by id and returns how many were written.
// Rows without a usable id are skipped.
func (r *MirrorRepository) UpsertAccessEvents(ctx context.Context, rows []map[string]any) (int, error) {
	records, err := mapAccessEvents(rows)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).
		Clauses(upsertClause(accessEventColumns)).
		CreateInBatches(&records, upsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("upsert access events: %w", err)
	}
	return len(records), nil
}

// UpsertQrEvents writes rows replace-on-conflict by id, backfilling the legacy visitor keys.
func (r *MirrorRepository) UpsertQrEvents(ctx context.Context, rows []map[string]any) (int, error) {
	records, err := mapQrEvents(rows)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).
		Clauses(upsertClause(qrEventColumns)).
		CreateInBatches(&records, upsertBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("upsert qr events: %w", err)
	}
	return len(records), nil
}

// RecentRows returns up to limit rows of table, newest event first, as column maps.
func (r *MirrorRepository) RecentRows(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if table != mirror.TableAccessEvents && table != mirror.TableQrEvents {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	query := r.db.WithContext(ctx).
		Table(table).
		Order("event_time DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []map[string]any
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent %s: %w", table, err)
	}

	for _, row := range rows {
		for key, value := range row {
			if raw, ok := value.([]byte); ok {
				row[key] = string(raw)
			}
		}
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func upsertClause(columns []string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}
}
