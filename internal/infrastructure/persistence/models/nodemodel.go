package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// NodeModel represents the database persistence model for proxy nodes.
// uplink/downlink are running totals of the node's raw outbound
// counters, never scaled by the usage coefficient.
type NodeModel struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"size:128;uniqueIndex;not null"`
	Address   string `gorm:"size:255;not null"`
	APIPort   int    `gorm:"not null"`
	APIToken  string `gorm:"size:255;not null"`
	Status    string `gorm:"size:32;index;not null;default:connecting"`
	Message   string `gorm:"size:1024"` // last health-check error, empty when healthy
	Uplink    int64  `gorm:"not null;default:0"`
	Downlink  int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (NodeModel) TableName() string {
	return constants.TableNodes
}
