//go:build integration

package menurecord_test

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Ramsey-B/squidly/internal/repositories/menurecord"
	"github.com/Ramsey-B/squidly/pkg/database"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func migrationsPath(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "pg")
}

func startPostgres(t *testing.T) database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "squidly",
				"POSTGRES_PASSWORD": "squidly",
				"POSTGRES_DB":       "squidly",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	logger := getTestLogger()
	db, err := database.Connect(ctx, database.Config{
		Host:     host,
		Port:     port.Port(),
		User:     "squidly",
		Password: "squidly",
		Name:     "squidly",
		SSLMode:  "disable",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{MigrationFolderPath: migrationsPath(t)})
	require.NoError(t, migrations.Migrate("squidly", db))

	return db
}

func TestRepository_Postgres(t *testing.T) {
	db := startPostgres(t)
	repo := menurecord.NewRepository(db, getTestLogger())
	ctx := context.Background()

	groupMeta, err := store.EncodeMeta(models.ProductGroup{Name: "Sides", Type: models.ItemKindProduct, GroupItemIDs: []int64{3, 30}})
	require.NoError(t, err)
	groupID, err := repo.CreateRecord(ctx, models.RecordTypeProductGroup, groupMeta)
	require.NoError(t, err)

	t.Run("get and decode", func(t *testing.T) {
		rec, err := repo.GetRecord(ctx, groupID)
		require.NoError(t, err)
		require.NotNil(t, rec)

		var group models.ProductGroup
		require.NoError(t, rec.Decode(&group))
		assert.Equal(t, "Sides", group.Name)
		assert.Equal(t, []int64{3, 30}, group.GroupItemIDs)
	})

	t.Run("update and read one attribute", func(t *testing.T) {
		require.NoError(t, repo.UpdateMeta(ctx, groupID, "name", "Extras"))
		raw, err := repo.GetMeta(ctx, groupID, "name")
		require.NoError(t, err)
		assert.JSONEq(t, `"Extras"`, string(raw))

		assert.ErrorIs(t, repo.UpdateMeta(ctx, groupID+1000, "name", "x"), store.ErrRecordNotFound)
	})

	t.Run("containment is by element", func(t *testing.T) {
		ids, err := repo.QueryByMetaContains(ctx, models.RecordTypeProductGroup, "group_item_ids", 3)
		require.NoError(t, err)
		assert.Equal(t, []int64{groupID}, ids)

		ids, err = repo.QueryByMetaContains(ctx, models.RecordTypeProductGroup, "group_item_ids", 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("criteria", func(t *testing.T) {
		records, err := repo.FindRecords(ctx, models.RecordTypeProductGroup, store.Criteria{"type": "product"}, 10, 0)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, groupID, records[0].ID)
	})

	t.Run("rollback", func(t *testing.T) {
		hookRan := false
		err := repo.RunInTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.UpdateMeta(ctx, groupID, "name", "Rolled back"))
			require.NoError(t, store.AfterCommit(ctx, func(context.Context) error {
				hookRan = true
				return nil
			}))
			return fmt.Errorf("abort")
		})
		require.Error(t, err)
		assert.False(t, hookRan)

		rec, err := repo.GetRecord(ctx, groupID)
		require.NoError(t, err)
		assert.Equal(t, "Extras", rec.Meta.String("name"))
	})

	t.Run("commit hooks run after nested scopes commit", func(t *testing.T) {
		calls := []string{}
		err := repo.RunInTx(ctx, func(ctx context.Context) error {
			err := repo.RunInTx(ctx, func(ctx context.Context) error {
				return store.AfterCommit(ctx, func(context.Context) error {
					calls = append(calls, "inner")
					return nil
				})
			})
			require.NoError(t, err)
			assert.Empty(t, calls)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"inner"}, calls)
	})

	t.Run("trash then purge", func(t *testing.T) {
		deleted, err := repo.DeleteRecord(ctx, groupID, false)
		require.NoError(t, err)
		assert.True(t, deleted)

		rec, err := repo.GetRecord(ctx, groupID)
		require.NoError(t, err)
		assert.Nil(t, rec)

		deleted, err = repo.DeleteRecord(ctx, groupID, true)
		require.NoError(t, err)
		assert.True(t, deleted)
	})
}
