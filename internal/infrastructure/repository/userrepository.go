package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"veilgate/internal/domain/usage"
	"veilgate/internal/shared/constants"
	"veilgate/internal/shared/logger"
)

// UserRepositoryImpl implements the usage.OwnerLookup interface.
type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB, log logger.Interface) usage.OwnerLookup {
	return &UserRepositoryImpl{
		db:     db,
		logger: log,
	}
}

// AdminOwners resolves the owning admin for each given user id with a
// single batched query. Users without an admin are absent from the map.
func (r *UserRepositoryImpl) AdminOwners(ctx context.Context, userIDs []uint) (map[uint]uint, error) {
	if len(userIDs) == 0 {
		return map[uint]uint{}, nil
	}

	var rows []struct {
		ID      uint
		AdminID *uint
	}
	if err := r.db.WithContext(ctx).
		Table(constants.TableUsers).
		Select("id, admin_id").
		Where("id IN ?", userIDs).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to look up admin owners", "users", len(userIDs), "error", err)
		return nil, fmt.Errorf("failed to look up admin owners: %w", err)
	}

	owners := make(map[uint]uint, len(rows))
	for _, row := range rows {
		if row.AdminID == nil {
			continue
		}
		owners[row.ID] = *row.AdminID
	}
	return owners, nil
}
