package stride_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stride "github.com/strideapp/stride-engine"
)

type stubProvider struct {
	steps int
}

func (p *stubProvider) IsAvailable(ctx context.Context) (bool, error) { return true, nil }

func (p *stubProvider) StepCount(ctx context.Context, from, to time.Time) (int, error) {
	return p.steps, nil
}

type upsertRecorder struct {
	mu      sync.Mutex
	records map[string]int
}

func newUpsertServer(t *testing.T) (*httptest.Server, *upsertRecorder) {
	t.Helper()
	rec := &upsertRecorder{records: make(map[string]int)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Date      string `json:"date"`
			StepCount int    `json:"stepCount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		rec.mu.Lock()
		rec.records[body.Date] = body.StepCount
		rec.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func (r *upsertRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func testConfig(remoteURL string) stride.Config {
	cfg := stride.Config{}
	cfg.StoreBackend = "memory"
	cfg.RemoteBaseURL = remoteURL
	cfg.RemoteTimeout = 2 * time.Second
	cfg.SyncInterval = time.Hour
	cfg.MinSyncInterval = 0
	cfg.SettleDelay = 5 * time.Millisecond
	cfg.MigrationDelay = time.Hour
	return cfg
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	server, recorder := newUpsertServer(t)

	engine, err := stride.New(testConfig(server.URL), &stubProvider{steps: 8765})
	require.NoError(t, err)

	require.NoError(t, engine.Start(ctx))
	defer engine.Shutdown()

	snap := engine.Snapshot()
	assert.True(t, snap.IsAvailable)
	assert.Zero(t, snap.State.Steps, "start hydrates but never reads the sensor")

	engine.Refresh(ctx)

	snap = engine.Snapshot()
	assert.Equal(t, 8765, snap.State.Steps)
	assert.Equal(t, 1, snap.State.CurrentStreak)
	assert.False(t, snap.HasError)

	require.NoError(t, engine.UpdateGoal(ctx, 10000))
	assert.Equal(t, 10000, engine.Snapshot().State.Goal)

	// The startup settle job pushes today's record without any UI trigger.
	assert.Eventually(t, func() bool {
		return recorder.count() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, engine.Shutdown())
}

func TestEngineMigrationIsGuarded(t *testing.T) {
	ctx := context.Background()
	server, _ := newUpsertServer(t)

	engine, err := stride.New(testConfig(server.URL), &stubProvider{steps: 100})
	require.NoError(t, err)
	defer engine.Shutdown()

	require.NoError(t, engine.RunHistoricalMigration(ctx))
	require.NoError(t, engine.RunHistoricalMigration(ctx), "second run is a guarded no-op")
}

func TestEngineRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig("http://localhost:0")
	cfg.StoreBackend = "scrolls"

	_, err := stride.New(cfg, &stubProvider{})
	assert.ErrorContains(t, err, "unknown store backend")
}
