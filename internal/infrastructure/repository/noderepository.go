package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"veilgate/internal/domain/node"
	"veilgate/internal/infrastructure/persistence/models"
	"veilgate/internal/shared/biztime"
	apperrors "veilgate/internal/shared/errors"
	"veilgate/internal/shared/logger"
)

// NodeRepositoryImpl implements the node.Repository interface
type NodeRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewNodeRepository creates a new node repository instance
func NewNodeRepository(db *gorm.DB, log logger.Interface) node.Repository {
	return &NodeRepositoryImpl{
		db:     db,
		logger: log,
	}
}

// ListEnabled returns all nodes except disabled ones.
func (r *NodeRepositoryImpl) ListEnabled(ctx context.Context) ([]node.Node, error) {
	var rows []models.NodeModel
	if err := r.db.WithContext(ctx).
		Where("status <> ?", string(node.StatusDisabled)).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list enabled nodes", "error", err)
		return nil, fmt.Errorf("failed to list enabled nodes: %w", err)
	}
	return toNodes(rows), nil
}

// ListByStatus returns all nodes with the given status.
func (r *NodeRepositoryImpl) ListByStatus(ctx context.Context, status node.Status) ([]node.Node, error) {
	var rows []models.NodeModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list nodes by status", "status", status, "error", err)
		return nil, fmt.Errorf("failed to list nodes by status %q: %w", status, err)
	}
	return toNodes(rows), nil
}

// UpdateStatus transitions a node's status, recording the last error
// message for error transitions.
func (r *NodeRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status node.Status, message string) error {
	updates := map[string]any{
		"status":     string(status),
		"message":    message,
		"updated_at": biztime.NowUTC(),
	}
	result := r.db.WithContext(ctx).
		Model(&models.NodeModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		r.logger.Errorw("failed to update node status", "node_id", id, "status", status, "error", result.Error)
		return fmt.Errorf("failed to update node %d status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("node %d not found", id))
	}

	r.logger.Infow("node status updated", "node_id", id, "status", status)
	return nil
}

func toNodes(rows []models.NodeModel) []node.Node {
	nodes := make([]node.Node, 0, len(rows))
	for _, row := range rows {
		nodes = append(nodes, node.Node{
			ID:       row.ID,
			Name:     row.Name,
			Address:  row.Address,
			APIPort:  row.APIPort,
			APIToken: row.APIToken,
			Status:   node.Status(row.Status),
		})
	}
	return nodes
}
