package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// SystemStatModel is the single global running-total row; each node
// cycle adds the fleet-wide uplink/downlink delta to it.
type SystemStatModel struct {
	ID        uint  `gorm:"primarykey"`
	Uplink    int64 `gorm:"not null;default:0"`
	Downlink  int64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (SystemStatModel) TableName() string {
	return constants.TableSystemStats
}
