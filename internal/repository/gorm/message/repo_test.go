package messagegorm_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/exotel-gateway/internal/db/gormdb"
	"github.com/oggyb/exotel-gateway/internal/domain/message"
	messagegorm "github.com/oggyb/exotel-gateway/internal/repository/gorm/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres with a migrated outbox table.
// The test is skipped under -short or when Docker is unavailable.
func startPostgres(t *testing.T) *gormdb.GormDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "exotel", "POSTGRES_PASSWORD": "exotel", "POSTGRES_DB": "outbox"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=exotel password=exotel dbname=outbox sslmode=disable", host, port.Port())

	var conn *gormdb.GormDB
	require.Eventually(t, func() bool {
		conn, err = gormdb.New(dsn)
		return err == nil
	}, 30*time.Second, 500*time.Millisecond)

	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, messagegorm.NewRepository(conn).Migrate(ctx))
	return conn
}

func newMessage(t *testing.T, to string) *message.Message {
	t.Helper()
	m, err := message.NewMessage("EXO", to, "hello", "")
	require.NoError(t, err)
	return m
}

func TestRepository_Lifecycle(t *testing.T) {
	repo := messagegorm.NewRepository(startPostgres(t))
	ctx := context.Background()

	first := newMessage(t, "0001")
	second := newMessage(t, "0002")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	pending, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	first.MarkSent("sid-1", "queued", `{"Sid":"sid-1"}`)
	require.NoError(t, repo.UpdateStatus(ctx, first))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, message.StatusSent, got.Status)
	assert.Equal(t, "sid-1", got.SID)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.SentAt)

	sent, total, err := repo.List(ctx, message.StatusSent, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, sent, 1)

	all, total, err := repo.List(ctx, "", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 1)

	// second is still claimed by the first GetPending.
	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	second.MarkRetry("throttled")
	require.NoError(t, repo.UpdateStatus(ctx, second))

	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].Attempts)
}

func TestRepository_ClaimExpires(t *testing.T) {
	repo := messagegorm.NewRepository(startPostgres(t), messagegorm.WithClaimTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newMessage(t, "0001")))

	claimed, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	again, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.Eventually(t, func() bool {
		got, err := repo.GetPending(ctx, 10)
		return err == nil && len(got) == 1
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRepository_ConcurrentDispatchersDoNotShareRows(t *testing.T) {
	conn := startPostgres(t)
	ctx := context.Background()

	seed := messagegorm.NewRepository(conn)
	const total = 20
	for i := 0; i < total; i++ {
		require.NoError(t, seed.Save(ctx, newMessage(t, fmt.Sprintf("%04d", i))))
	}

	var (
		mu   sync.Mutex
		seen = map[uuid.UUID]int{}
		wg   sync.WaitGroup
	)
	for d := 0; d < 4; d++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo := messagegorm.NewRepository(conn)
			got, err := repo.GetPending(ctx, total)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			for _, m := range got {
				seen[m.ID]++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "message %s handed out %d times", id, n)
	}
}

func TestRepository_NotFound(t *testing.T) {
	repo := messagegorm.NewRepository(startPostgres(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, message.ErrNotFound)

	ghost := newMessage(t, "0009")
	require.ErrorIs(t, repo.UpdateStatus(ctx, ghost), message.ErrNotFound)
}
