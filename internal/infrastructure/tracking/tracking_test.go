package tracking

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

type storeFactory func(t *testing.T, clock func() time.Time) ports.OperationStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, clock func() time.Time) ports.OperationStore {
			m := NewMemoryTracker()
			m.now = clock
			return m
		},
		"sqlite": func(t *testing.T, clock func() time.Time) ports.OperationStore {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ops", "operations.db"))
			require.NoError(t, err)
			s.now = clock
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOperationLifecycle(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t, steppingClock(epoch))

			id, err := store.CreateOperation(ctx, domain.ConversionRequest{
				OperationType:   domain.CommandFile,
				OriginalCommand: "cat README.md",
				SessionID:       "s1",
				Priority:        domain.PriorityLow,
				ContextFiles:    []string{"README.md"},
				Metadata:        map[string]string{"source": "test"},
			})
			require.NoError(t, err)
			require.NotEmpty(t, id)

			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{
				OperationID: id,
				Status:      domain.StateInProgress,
			}))
			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{
				OperationID:         id,
				Status:              domain.StateCompleted,
				ConvertedEquivalent: "Web-safe equivalent for: cat README.md",
				WebEquivalentOutput: "# Demo",
				ConversionNotes:     "Successfully converted shell command to web operation",
			}))

			ops, err := store.SessionOperations(ctx, "s1", 0)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			op := ops[0]
			assert.Equal(t, id, op.ID)
			assert.Equal(t, domain.DefaultUserID, op.UserID)
			assert.Equal(t, domain.CommandFile, op.Type)
			assert.Equal(t, domain.PriorityLow, op.Priority)
			assert.Equal(t, domain.StateCompleted, op.Status)
			assert.Equal(t, "# Demo", op.WebEquivalentOutput)
			assert.Equal(t, []string{"README.md"}, op.ContextFiles)
			assert.Equal(t, map[string]string{"source": "test"}, op.Metadata)
			assert.True(t, op.CreatedAt.Equal(epoch.Add(time.Second)))
			assert.True(t, op.UpdatedAt.Equal(epoch.Add(3*time.Second)))
			require.NotNil(t, op.CompletedAt)
			assert.True(t, op.CompletedAt.Equal(op.UpdatedAt))
		})
	}
}

func TestUpdateRejectsBackwardsAndUnknown(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t, steppingClock(epoch))

			id, err := store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1", OriginalCommand: "git push"})
			require.NoError(t, err)
			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{
				OperationID:  id,
				Status:       domain.StateFailed,
				ErrorMessage: "No web-safe equivalent available for command: git push",
			}))

			err = store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: id, Status: domain.StateInProgress})
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)

			err = store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: "missing", Status: domain.StateCompleted})
			assert.ErrorIs(t, err, domain.ErrOperationNotFound)

			ops, err := store.SessionOperations(ctx, "s1", 0)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.Equal(t, domain.StateFailed, ops[0].Status)
			assert.Equal(t, "No web-safe equivalent available for command: git push", ops[0].ErrorMessage)
		})
	}
}

func TestCreateRequiresSession(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			_, err := factory(t, steppingClock(epoch)).CreateOperation(context.Background(), domain.ConversionRequest{})
			assert.Error(t, err)
		})
	}
}

func TestSessionProgressAndOrdering(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t, steppingClock(epoch))

			var ids []string
			for i, cmd := range []string{"ls", "cat a", "git push", "npm install"} {
				id, err := store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1", OriginalCommand: cmd})
				require.NoError(t, err, i)
				ids = append(ids, id)
			}
			_, err := store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "other", OriginalCommand: "pwd"})
			require.NoError(t, err)

			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: ids[0], Status: domain.StateCompleted}))
			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: ids[1], Status: domain.StateCompleted}))
			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: ids[2], Status: domain.StateFailed}))
			require.NoError(t, store.UpdateOperation(ctx, domain.ConversionUpdate{OperationID: ids[3], Status: domain.StateInProgress}))

			progress, err := store.SessionProgress(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, domain.SessionProgress{
				SessionID:            "s1",
				TotalOperations:      4,
				ConvertedOperations:  2,
				FailedOperations:     1,
				PendingOperations:    1,
				ConversionPercentage: 50,
				SuccessRate:          float64(2) / float64(3) * 100,
			}, progress)

			ops, err := store.SessionOperations(ctx, "s1", 2)
			require.NoError(t, err)
			require.Len(t, ops, 2)
			assert.Equal(t, "npm install", ops[0].OriginalCommand)
			assert.Equal(t, "git push", ops[1].OriginalCommand)

			empty, err := store.SessionProgress(ctx, "nobody")
			require.NoError(t, err)
			assert.Equal(t, 0, empty.TotalOperations)
			assert.Zero(t, empty.SuccessRate)
		})
	}
}

func TestPruneAndExport(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t, steppingClock(epoch))

			oldID, err := store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1", OriginalCommand: "ls"})
			require.NoError(t, err)
			_, err = store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1", OriginalCommand: "cat a"})
			require.NoError(t, err)

			removed, err := store.Prune(ctx, epoch.Add(2*time.Second))
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)

			ops, err := store.SessionOperations(ctx, "s1", 0)
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.NotEqual(t, oldID, ops[0].ID)

			dest := filepath.Join(t.TempDir(), "export.jsonl")
			require.NoError(t, store.ExportJSON(ctx, dest))

			file, err := os.Open(dest)
			require.NoError(t, err)
			defer file.Close()
			var lines []domain.ConversionOperation
			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				var op domain.ConversionOperation
				require.NoError(t, json.Unmarshal(scanner.Bytes(), &op))
				lines = append(lines, op)
			}
			require.NoError(t, scanner.Err())
			require.Len(t, lines, 1)
			assert.Equal(t, "cat a", lines[0].OriginalCommand)
		})
	}
}

func TestMemoryTrackerReturnsCopies(t *testing.T) {
	ctx := context.Background()
	tracker := NewMemoryTracker()
	_, err := tracker.CreateOperation(ctx, domain.ConversionRequest{
		SessionID:    "s1",
		ContextFiles: []string{"a.go"},
	})
	require.NoError(t, err)

	ops, err := tracker.SessionOperations(ctx, "s1", 0)
	require.NoError(t, err)
	ops[0].ContextFiles[0] = "mutated"

	again, err := tracker.SessionOperations(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "a.go", again[0].ContextFiles[0])
}

func TestMemoryTrackerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryTracker().CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteStoreReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "operations.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	id, err := store.CreateOperation(ctx, domain.ConversionRequest{SessionID: "s1", OriginalCommand: "ls"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	ops, err := reopened.SessionOperations(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, id, ops[0].ID)
	assert.Nil(t, ops[0].CompletedAt)
}
