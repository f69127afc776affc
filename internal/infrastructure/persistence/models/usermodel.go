package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// UserModel represents the database persistence model for panel users.
// Only the columns the settlement pipeline touches are mapped here;
// used_traffic is a monotonically non-decreasing running total.
type UserModel struct {
	ID          uint   `gorm:"primarykey"`
	Username    string `gorm:"size:64;uniqueIndex;not null"`
	AdminID     *uint  `gorm:"index"`
	UsedTraffic int64  `gorm:"not null;default:0"` // bytes credited across all nodes
	OnlineAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUsers
}
