/*
 * @Author: NEFU AB-IN
 * @Date: 2025-10-14 13:30:14
 * @FilePath: \pssuai-admin\backend\internal\repository\resident_repository.go
 * @LastEditTime: 2025-10-14 13:30:19
 */
package repository

import (
	"context"
	"fmt"

	"pssuai-admin/backend/internal/domain/mirror"

	"gorm.io/gorm"
)

// ResidentRepository manages the local resident copies.
type ResidentRepository struct {
	db *gorm.DB
}

// NewResidentRepository builds the repository on a pooled handle.
func NewResidentRepository(db *gorm.DB) *ResidentRepository {
	return &ResidentRepository{db: db}
}

// DeleteByID removes the resident and reports how many rows went away (0 or 1).
// A missing row is not an error.
func (r *ResidentRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&mirror.Resident{}, id)
	if result.Error != nil {
		return 0, fmt.Errorf("delete resident %d: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}
