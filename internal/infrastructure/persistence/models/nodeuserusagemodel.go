package models

import (
	"time"

	"veilgate/internal/shared/constants"
)

// NodeUserUsageModel is the per-user-per-node-per-hour fact table.
// created_at is the UTC hour bucket; rows accumulate within their hour
// and are immutable once the bucket rolls over.
type NodeUserUsageModel struct {
	ID          uint      `gorm:"primarykey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_node_user_usage_bucket,priority:2"`
	NodeID      uint      `gorm:"not null;uniqueIndex:idx_node_user_usage_bucket,priority:3"`
	CreatedAt   time.Time `gorm:"not null;uniqueIndex:idx_node_user_usage_bucket,priority:1"`
	UsedTraffic int64     `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (NodeUserUsageModel) TableName() string {
	return constants.TableNodeUserUsages
}
