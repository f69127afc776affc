package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// NodeUsageModel is the per-node-per-hour fact table. created_at is the
// UTC hour bucket.
type NodeUsageModel struct {
	ID        uint      `gorm:"primarykey"`
	NodeID    uint      `gorm:"not null;uniqueIndex:idx_node_usage_bucket,priority:2"`
	CreatedAt time.Time `gorm:"not null;uniqueIndex:idx_node_usage_bucket,priority:1"`
	Uplink    int64     `gorm:"not null;default:0"`
	Downlink  int64     `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (NodeUsageModel) TableName() string {
	return constants.TableNodeUsages
}
