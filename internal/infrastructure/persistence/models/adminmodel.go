package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// AdminModel represents the database persistence model for admins.
// used_traffic accumulates the credited deltas of all owned users.
type AdminModel struct {
	ID          uint   `gorm:"primarykey"`
	Username    string `gorm:"size:64;uniqueIndex;not null"`
	UsedTraffic int64  `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (AdminModel) TableName() string {
	return constants.TableAdmins
}
