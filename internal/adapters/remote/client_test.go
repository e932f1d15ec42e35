package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride-engine/internal/adapters/remote"
)

type upsertBody struct {
	Date      string `json:"date"`
	StepCount int    `json:"stepCount"`
}

// fakeRemote is an in-memory stand-in for the step service, keyed by date so
// upserts overwrite instead of accumulating.
type fakeRemote struct {
	records map[string]int
	calls   int
}

func newFakeRemoteServer(t *testing.T, token string) (*httptest.Server, *fakeRemote) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeRemote{records: make(map[string]int)}

	router := gin.New()
	router.PUT("/api/v1/steps", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		var body upsertBody
		if err := c.ShouldBindJSON(&body); err != nil || body.Date == "" {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		fake.calls++
		fake.records[body.Date] = body.StepCount
		c.Status(http.StatusNoContent)
	})
	router.GET("/api/v1/steps/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"from":         c.Query("from"),
			"to":           c.Query("to"),
			"totalSteps":   21000,
			"daysTracked":  3,
			"daysGoalMet":  2,
			"dailyAverage": 7000,
		})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, fake
}

func TestUpsertStepsOverwritesByDate(t *testing.T) {
	ctx := context.Background()
	server, fake := newFakeRemoteServer(t, "test-token")

	client := remote.NewClient(server.URL, "test-token", 5*time.Second)

	require.NoError(t, client.UpsertSteps(ctx, "2026-03-14", 5000))
	require.NoError(t, client.UpsertSteps(ctx, "2026-03-14", 8200))

	assert.Equal(t, 2, fake.calls)
	assert.Equal(t, map[string]int{"2026-03-14": 8200}, fake.records)
}

func TestUpsertStepsRejectedToken(t *testing.T) {
	ctx := context.Background()
	server, fake := newFakeRemoteServer(t, "test-token")

	client := remote.NewClient(server.URL, "wrong-token", 5*time.Second)

	err := client.UpsertSteps(ctx, "2026-03-14", 5000)
	assert.Error(t, err)
	assert.Zero(t, fake.calls)
}

func TestUpsertStepsServerError(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := remote.NewClient(server.URL, "", time.Second)

	err := client.UpsertSteps(ctx, "2026-03-14", 5000)
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestRangeStats(t *testing.T) {
	ctx := context.Background()
	server, _ := newFakeRemoteServer(t, "test-token")

	client := remote.NewClient(server.URL, "test-token", 5*time.Second)

	summary, err := client.RangeStats(ctx, "2026-03-12", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-12", summary.From)
	assert.Equal(t, "2026-03-14", summary.To)
	assert.Equal(t, 21000, summary.TotalSteps)
	assert.Equal(t, 2, summary.DaysGoalMet)
}
