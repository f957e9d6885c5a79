package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/jfrisancho/fabnet-coverage/internal/domain/model"
	"github.com/jfrisancho/fabnet-coverage/internal/infrastructure/storage/models"
)

// NetworkRepository is the bun-backed implementation of
// repository.NetworkRepository.
type NetworkRepository struct {
	db bun.IDB
}

func NewNetworkRepository(db bun.IDB) *NetworkRepository {
	return &NetworkRepository{db: db}
}

func (r *NetworkRepository) LoadAllNodes(ctx context.Context) ([]model.Node, error) {
	var rows []models.NodeModel
	if err := r.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	out := make([]model.Node, 0, len(rows))
	for _, n := range rows {
		out = append(out, model.Node{
			NodeID:     n.NodeID,
			DataCode:   model.DataCode(n.DataCode),
			UtilityNo:  n.UtilityNo,
			ToolsetID:  n.ToolsetID,
			EqPocNo:    n.EqPocNo,
			NetObjType: model.NetObjType(n.NetObjType),
		})
	}
	return out, nil
}

func (r *NetworkRepository) LoadLinks(ctx context.Context, nodeIDs map[int64]struct{}) ([]model.Link, error) {
	var rows []models.LinkModel
	if err := r.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	out := make([]model.Link, 0, len(rows))
	for _, l := range rows {
		if _, ok := nodeIDs[l.StartNodeID]; !ok {
			continue
		}
		if _, ok := nodeIDs[l.EndNodeID]; !ok {
			continue
		}
		out = append(out, model.Link{
			LinkID:       l.ID,
			GUID:         l.GUID,
			StartNodeID:  l.StartNodeID,
			EndNodeID:    l.EndNodeID,
			IsBidirected: l.IsBidirected,
			Cost:         l.Cost,
			NetObjType:   model.NetObjType(l.NetObjType),
		})
	}
	return out, nil
}
