package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resdex/internal/report"
	"resdex/pkg/storage"
)

func testConn(t *testing.T) storage.Conn {
	t.Helper()
	conn, err := storage.NewMemoryFactory().Open(context.Background(), "1000000001", "")
	require.NoError(t, err)
	return conn
}

func TestIngest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	t.Run("records resources", func(t *testing.T) {
		t.Parallel()
		conn := testConn(t)

		n, err := report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t0, LastSeenAt: t1},
			{Type: "queue", ID: "jobs", FirstSeenAt: t0, LastSeenAt: t0},
		}})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := report.List(ctx, conn)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("re-observation widens the seen window", func(t *testing.T) {
		t.Parallel()
		conn := testConn(t)

		_, err := report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t0, LastSeenAt: t1},
		}})
		require.NoError(t, err)

		// Later observation with a later window.
		_, err = report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t1, LastSeenAt: t2},
		}})
		require.NoError(t, err)

		got, err := report.List(ctx, conn)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, t0, got[0].FirstSeenAt)
		assert.Equal(t, t2, got[0].LastSeenAt)

		// An out-of-order replay must not shrink it.
		_, err = report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t1, LastSeenAt: t1},
		}})
		require.NoError(t, err)

		got, err = report.List(ctx, conn)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, t0, got[0].FirstSeenAt)
		assert.Equal(t, t2, got[0].LastSeenAt)
	})

	t.Run("rejects bad resources before writing", func(t *testing.T) {
		t.Parallel()
		conn := testConn(t)

		_, err := report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t0, LastSeenAt: t1},
			{Type: "", ID: "nameless", FirstSeenAt: t0, LastSeenAt: t1},
		}})
		require.ErrorIs(t, err, report.ErrBadPayload)

		// Nothing was persisted, including the valid first entry.
		got, err := report.List(ctx, conn)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects inverted seen window", func(t *testing.T) {
		t.Parallel()
		conn := testConn(t)

		_, err := report.Ingest(ctx, conn, report.Report{Resources: []report.Resource{
			{Type: "bucket", ID: "logs", FirstSeenAt: t1, LastSeenAt: t0},
		}})
		require.ErrorIs(t, err, report.ErrBadPayload)
	})

	t.Run("empty report is a no-op", func(t *testing.T) {
		t.Parallel()
		conn := testConn(t)

		n, err := report.Ingest(ctx, conn, report.Report{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
