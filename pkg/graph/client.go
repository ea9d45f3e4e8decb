// Package graph keeps the menu reference graph in Memgraph/Neo4j over Bolt.
package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/squidly/pkg/tracing"
)

const defaultLabel = "MenuRecord"

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	// Database is empty for Memgraph and the server default on Neo4j.
	Database string
}

func (c Config) uri() string {
	return fmt.Sprintf("bolt://%s:%d", c.Host, c.Port)
}

// Client runs Cypher against one graph database.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   ectologger.Logger
}

// NewClient builds the driver. Nothing is dialled until the first query or VerifyConnectivity.
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.uri(), auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver for %s: %w", cfg.uri(), err)
	}

	return &Client{driver: driver, database: cfg.Database, logger: logger}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Write runs one statement in a write transaction and discards its result.
func (c *Client) Write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := c.execute(ctx, neo4j.AccessModeWrite, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

// Query runs one statement in a read transaction and returns every row.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	rows, err := c.execute(ctx, neo4j.AccessModeRead, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return rows.([]*neo4j.Record), nil
}

func (c *Client) execute(ctx context.Context, mode neo4j.AccessMode, work neo4j.ManagedTransactionWork) (any, error) {
	spanName := "graph.Client.Read"
	if mode == neo4j.AccessModeWrite {
		spanName = "graph.Client.Write"
	}
	ctx, span := tracing.StartSpan(ctx, spanName)
	defer span.End()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
	defer session.Close(ctx)

	var (
		out any
		err error
	)
	if mode == neo4j.AccessModeWrite {
		out, err = session.ExecuteWrite(ctx, work)
	} else {
		out, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Debugf("%s failed", spanName)
	}
	return out, err
}

// sanitizeLabel keeps letters, digits and underscores so the value can be spliced into Cypher.
func sanitizeLabel(label string) string {
	result := make([]rune, 0, len(label))
	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return defaultLabel
	}
	return string(result)
}
