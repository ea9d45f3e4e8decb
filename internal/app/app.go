// Package app wires the menu core to its configured backends.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/config"
	"github.com/Ramsey-B/squidly/internal/repositories"
	"github.com/Ramsey-B/squidly/internal/repositories/groupitem"
	"github.com/Ramsey-B/squidly/internal/repositories/ingredient"
	"github.com/Ramsey-B/squidly/internal/repositories/menurecord"
	"github.com/Ramsey-B/squidly/internal/repositories/product"
	"github.com/Ramsey-B/squidly/internal/repositories/productgroup"
	"github.com/Ramsey-B/squidly/internal/repositories/storebranch"
	"github.com/Ramsey-B/squidly/pkg/availability"
	"github.com/Ramsey-B/squidly/pkg/database"
	"github.com/Ramsey-B/squidly/pkg/dependency"
	"github.com/Ramsey-B/squidly/pkg/events"
	"github.com/Ramsey-B/squidly/pkg/graph"
	"github.com/Ramsey-B/squidly/pkg/health"
	"github.com/Ramsey-B/squidly/pkg/kafka"
	"github.com/Ramsey-B/squidly/pkg/redis"
	"github.com/Ramsey-B/squidly/pkg/references"
	"github.com/Ramsey-B/squidly/pkg/resolver"
	"github.com/Ramsey-B/squidly/pkg/seed"
	"github.com/Ramsey-B/squidly/pkg/startup"
	"github.com/Ramsey-B/squidly/pkg/store"
)

const (
	stepDatabase   = "database"
	stepRedis      = "redis"
	stepGraph      = "graph"
	stepKafka      = "kafka"
	stepCore       = "core"
	stepReferences = "references"
)

// App holds every wired component. Fields for disabled integrations stay nil.
type App struct {
	Config *config.Config
	Logger ectologger.Logger
	Health *health.Checker

	DB       database.DB
	Redis    *redis.Client
	Graph    *graph.Client
	Producer *kafka.Producer

	Store      store.EntityStore
	References references.Backend
	Events     *events.Emitter
	Guard      *dependency.Guard
	Catalog    *resolver.Catalog
	Resolver   *resolver.Resolver

	Ingredients   *ingredient.Repository
	Products      *product.Repository
	GroupItems    *groupitem.Repository
	ProductGroups *productgroup.Repository
	Branches      *storebranch.Repository
	Availability  *availability.Service
	Seeder        *seed.Loader
	Projection    *graph.Projection

	sequence *startup.Sequence
}

// New registers the startup steps for cfg. Nothing connects until Start.
func New(cfg *config.Config, logger ectologger.Logger) *App {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Health:   health.NewChecker(cfg.Version),
		sequence: startup.NewSequence(logger, cfg.StartupMaxAttempts),
	}

	a.sequence.Add(startup.Step{StepName: stepDatabase, StartFn: a.startStore, StopFn: a.stopStore})
	infra := []string{stepDatabase}

	if cfg.RedisHost != "" {
		a.sequence.Add(startup.Step{StepName: stepRedis, StartFn: a.startRedis, StopFn: a.stopRedis})
		infra = append(infra, stepRedis)
	}
	if cfg.GraphDBHost != "" {
		a.sequence.Add(startup.Step{StepName: stepGraph, StartFn: a.startGraph, StopFn: a.stopGraph})
		infra = append(infra, stepGraph)
	}
	if cfg.KafkaEnabled() {
		a.sequence.Add(startup.Step{StepName: stepKafka, StartFn: a.startKafka, StopFn: a.stopKafka})
		infra = append(infra, stepKafka)
	}

	a.sequence.Add(startup.Step{StepName: stepCore, Needs: infra, StartFn: a.wire})
	a.sequence.Add(startup.Step{StepName: stepReferences, Needs: []string{stepCore}, StartFn: a.rebuildReferences})

	return a
}

// Start connects the backends and wires the core, retrying failed steps.
func (a *App) Start(ctx context.Context) error {
	if err := a.sequence.Start(ctx); err != nil {
		return err
	}
	a.Health.SetReady(true)
	return nil
}

// Stop closes every connection opened by Start.
func (a *App) Stop(ctx context.Context) error {
	a.Health.SetReady(false)
	return a.sequence.Stop(ctx)
}

func (a *App) startStore(ctx context.Context) error {
	if a.Config.StoreBackend == config.StoreBackendMemory {
		a.Logger.WithContext(ctx).Warn("using the in-memory store; records are lost on exit")
		a.Store = store.NewMemoryStore()
		return nil
	}

	db, err := Connect(ctx, a.Config, a.Logger)
	if err != nil {
		return err
	}
	if err := migrateDB(a.Config, db, a.Logger); err != nil {
		_ = db.Close()
		return err
	}

	a.DB = db
	a.Store = menurecord.NewRepository(db, a.Logger)
	a.Health.Register(stepDatabase, db.PingContext)
	return nil
}

func (a *App) stopStore(context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := redis.NewClient(ctx, redis.Config{
		Host:     a.Config.RedisHost,
		Port:     a.Config.RedisPort,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	}, a.Logger)
	if err != nil {
		return err
	}

	a.Redis = client
	a.Health.RegisterOptional(stepRedis, client.Ping)
	return nil
}

func (a *App) stopRedis(context.Context) error {
	return a.Redis.Close()
}

func (a *App) startGraph(ctx context.Context) error {
	client, err := graph.NewClient(graph.Config{
		Host:     a.Config.GraphDBHost,
		Port:     a.Config.GraphDBPort,
		Username: a.Config.GraphDBUser,
		Password: a.Config.GraphDBPassword,
		Database: a.Config.GraphDBName,
	}, a.Logger)
	if err != nil {
		return err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return err
	}

	a.Graph = client
	if a.Config.ReferenceBackend == config.ReferenceBackendGraph {
		a.Health.Register(stepGraph, client.VerifyConnectivity)
	} else {
		a.Health.RegisterOptional(stepGraph, client.VerifyConnectivity)
	}
	return nil
}

func (a *App) stopGraph(ctx context.Context) error {
	return a.Graph.Close(ctx)
}

func (a *App) startKafka(context.Context) error {
	a.Producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.Config.KafkaBrokers,
		Topic:        a.Config.KafkaTopic,
		BatchSize:    a.Config.KafkaBatchSize,
		BatchTimeout: time.Duration(a.Config.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.Config.KafkaRequiredAcks,
		Compression:  a.Config.KafkaCompression,
	}, a.Logger)
	a.Health.RegisterOptional(stepKafka, a.Producer.Ping)
	return nil
}

func (a *App) stopKafka(context.Context) error {
	return a.Producer.Close()
}

// wire builds the core on top of whichever backends started.
func (a *App) wire(context.Context) error {
	backend, err := a.referenceBackend()
	if err != nil {
		return err
	}
	a.References = backend

	var publisher events.Publisher
	if a.Producer != nil {
		publisher = a.Producer
	}
	a.Events = events.NewEmitter(publisher, a.Logger)

	a.Guard = dependency.NewGuard(backend, a.Store, a.Logger)
	deps := repositories.Deps{
		Store:   a.Store,
		Tracker: backend,
		Guard:   a.Guard,
		Events:  a.Events,
		Logger:  a.Logger,
	}

	a.Ingredients = ingredient.NewRepository(deps)
	a.Products = product.NewRepository(deps)
	a.GroupItems = groupitem.NewRepository(deps)
	a.ProductGroups = productgroup.NewRepository(deps)
	a.Branches = storebranch.NewRepository(deps)

	a.Catalog = resolver.NewCatalog(a.Store)
	a.Resolver = resolver.NewResolver(a.Catalog, a.Logger)

	serviceDeps := availability.Deps{
		Store:    a.Store,
		Branches: a.Branches,
		Source:   a.Catalog,
		Resolver: a.Resolver,
		Events:   a.Events,
		Logger:   a.Logger,
		LockTTL:  a.Config.BranchLockTTL,
	}
	if a.Redis != nil {
		serviceDeps.Locker = redis.NewLocker(a.Redis, "", a.Config.BranchLockWait)
	}
	a.Availability = availability.NewService(serviceDeps)

	a.Seeder = seed.NewLoader(seed.Deps{
		Store:         a.Store,
		Ingredients:   a.Ingredients,
		Products:      a.Products,
		GroupItems:    a.GroupItems,
		ProductGroups: a.ProductGroups,
		Branches:      a.Branches,
		Availability:  a.Availability,
		Logger:        a.Logger,
	})

	if a.Graph != nil {
		a.Projection = graph.NewProjection(a.Graph, a.Logger)
	}

	return nil
}

func (a *App) referenceBackend() (references.Backend, error) {
	switch a.Config.ReferenceBackend {
	case config.ReferenceBackendStore:
		return references.NewStoreLookup(a.Store), nil
	case config.ReferenceBackendGraph:
		if a.Graph == nil {
			return nil, errors.New("the graph reference backend needs GRAPH_DB_HOST")
		}
		return graph.NewReferenceGraph(a.Graph, a.Logger), nil
	default:
		return references.NewIndex(), nil
	}
}

// rebuildReferences fills the in-memory index from the store. The store and
// graph backends are already current.
func (a *App) rebuildReferences(ctx context.Context) error {
	index, ok := a.References.(*references.Index)
	if !ok {
		return nil
	}
	_, err := references.Rebuild(ctx, a.Store, index, a.Logger)
	return err
}

// Connect opens the postgres pool described by cfg.
func Connect(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (database.DB, error) {
	return database.Connect(ctx, database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
}

// Migrate connects to postgres and applies the migrations.
func Migrate(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	db, err := Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrateDB(cfg, db, logger)
}

func migrateDB(cfg *config.Config, db database.DB, logger ectologger.Logger) error {
	if cfg.DatabaseMigrationVersion < 0 {
		return fmt.Errorf("invalid DB_MIGRATION_VERSION %d", cfg.DatabaseMigrationVersion)
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	return migrations.Migrate(cfg.DatabaseName, db)
}
