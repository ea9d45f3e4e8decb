package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/store"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

const projectionBatchSize = 500

var projectedTypes = []models.RecordType{
	models.RecordTypeIngredient,
	models.RecordTypeProduct,
	models.RecordTypeGroupItem,
	models.RecordTypeProductGroup,
}

// Projection mirrors the menu into the graph: one labelled node per record and
// REFERENCES edges between them.
type Projection struct {
	client     *Client
	references *ReferenceGraph
	logger     ectologger.Logger
}

func NewProjection(client *Client, logger ectologger.Logger) *Projection {
	return &Projection{
		client:     client,
		references: NewReferenceGraph(client, logger),
		logger:     logger,
	}
}

// SyncResult counts what a sync wrote
type SyncResult struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Sync clears the projected graph and rebuilds it from the store.
func (p *Projection) Sync(ctx context.Context, s store.EntityStore) (*SyncResult, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projection.Sync")
	defer span.End()

	if err := p.client.Write(ctx, `MATCH (n:MenuRecord) DETACH DELETE n`, nil); err != nil {
		return nil, fmt.Errorf("failed to clear menu graph: %w", err)
	}

	result := &SyncResult{}
	for _, recordType := range projectedTypes {
		for offset := 0; ; offset += projectionBatchSize {
			records, err := s.FindRecords(ctx, recordType, nil, projectionBatchSize, offset)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s records: %w", recordType, err)
			}
			for _, rec := range records {
				if err := p.UpsertNode(ctx, rec); err != nil {
					return nil, err
				}
				result.Nodes++
			}
			if len(records) < projectionBatchSize {
				break
			}
		}
	}

	edges, err := references.Rebuild(ctx, s, p.references, p.logger)
	if err != nil {
		return nil, err
	}
	result.Edges = edges

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"nodes":   result.Nodes,
		"tracked": result.Edges,
	}).Info("synced menu graph")

	return result, nil
}

// UpsertNode writes the node of one record with its display name.
func (p *Projection) UpsertNode(ctx context.Context, rec store.Record) error {
	ref := models.NewRef(rec.Type, rec.ID)
	name := rec.Meta.String(models.MetaKeyName)
	if name == "" {
		name = ref.String()
	}

	cypher := fmt.Sprintf(`
		MERGE (n:MenuRecord {type: $type, id: $id})
		SET n:%s, n.name = $name, n.updated_at = $updated_at
	`, sanitizeLabel(rec.Type.Label()))

	params := refParams(ref)
	params["name"] = name
	params["updated_at"] = rec.UpdatedAt
	if err := p.client.Write(ctx, cypher, params); err != nil {
		return fmt.Errorf("failed to project %s: %w", ref, err)
	}
	return nil
}
