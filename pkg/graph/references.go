package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

const (
	trackCypher = `
		MERGE (f:MenuRecord {type: $type, id: $id})
		WITH f
		OPTIONAL MATCH (f)-[old:REFERENCES]->()
		DELETE old
		WITH DISTINCT f
		UNWIND $targets AS target
		MERGE (t:MenuRecord {type: target.type, id: target.id})
		MERGE (f)-[r:REFERENCES]->(t)
		SET r.position = target.position
	`
	forgetCypher = `
		MATCH (f:MenuRecord {type: $type, id: $id})
		OPTIONAL MATCH (f)-[old:REFERENCES]->()
		DELETE old
	`
	referrersCypher = `
		MATCH (s:MenuRecord)-[:REFERENCES]->(:MenuRecord {type: $type, id: $id})
		RETURN DISTINCT s.type AS type, s.id AS id
		ORDER BY type, id
	`
)

// ReferenceGraph stores (:MenuRecord)-[:REFERENCES]->(:MenuRecord) edges so
// every replica answers referrer queries from the same graph.
type ReferenceGraph struct {
	client *Client
	logger ectologger.Logger
}

var _ references.Backend = (*ReferenceGraph)(nil)

func NewReferenceGraph(client *Client, logger ectologger.Logger) *ReferenceGraph {
	return &ReferenceGraph{
		client: client,
		logger: logger,
	}
}

func (g *ReferenceGraph) Track(ctx context.Context, from models.Ref, to []models.Ref) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ReferenceGraph.Track")
	defer span.End()

	params := refParams(from)
	params["targets"] = targetParams(to)
	if err := g.client.Write(ctx, trackCypher, params); err != nil {
		g.logger.WithContext(ctx).WithError(err).Errorf("failed to track references of %s", from)
		return fmt.Errorf("failed to track references of %s: %w", from, err)
	}
	return nil
}

func (g *ReferenceGraph) Forget(ctx context.Context, from models.Ref) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ReferenceGraph.Forget")
	defer span.End()

	if err := g.client.Write(ctx, forgetCypher, refParams(from)); err != nil {
		return fmt.Errorf("failed to forget references of %s: %w", from, err)
	}
	return nil
}

func (g *ReferenceGraph) Referrers(ctx context.Context, target models.Ref) ([]models.Ref, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ReferenceGraph.Referrers")
	defer span.End()

	records, err := g.client.Query(ctx, referrersCypher, refParams(target))
	if err != nil {
		return nil, fmt.Errorf("failed to find referrers of %s: %w", target, err)
	}

	refs := make([]models.Ref, 0, len(records))
	for _, record := range records {
		ref, err := refFromRecord(record)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func refParams(ref models.Ref) map[string]any {
	return map[string]any{
		"type": string(ref.Type),
		"id":   ref.ID,
	}
}

func targetParams(to []models.Ref) []map[string]any {
	targets := make([]map[string]any, 0, len(to))
	for i, ref := range to {
		targets = append(targets, map[string]any{
			"type":     string(ref.Type),
			"id":       ref.ID,
			"position": int64(i),
		})
	}
	return targets
}

func refFromRecord(record *neo4j.Record) (models.Ref, error) {
	recordType, _, err := neo4j.GetRecordValue[string](record, "type")
	if err != nil {
		return models.Ref{}, err
	}
	id, _, err := neo4j.GetRecordValue[int64](record, "id")
	if err != nil {
		return models.Ref{}, err
	}
	return models.NewRef(models.RecordType(recordType), id), nil
}
