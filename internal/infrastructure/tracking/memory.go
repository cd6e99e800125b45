package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

var errSessionRequired = errors.New("session id is required")

// MemoryTracker keeps operations in process memory.
type MemoryTracker struct {
	mu    sync.Mutex
	ops   map[string]*domain.ConversionOperation
	seq   map[string]int
	next  int
	now   func() time.Time
	newID func() string
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		ops:   make(map[string]*domain.ConversionOperation),
		seq:   make(map[string]int),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// CreateOperation implements ports.ConversionTracker.
func (m *MemoryTracker) CreateOperation(ctx context.Context, req domain.ConversionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.SessionID == "" {
		return "", errSessionRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	op := newOperation(m.newID(), req, m.now())
	m.ops[op.ID] = &op
	m.seq[op.ID] = m.next
	m.next++
	return op.ID, nil
}

// UpdateOperation implements ports.ConversionTracker.
func (m *MemoryTracker) UpdateOperation(ctx context.Context, update domain.ConversionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.ops[update.OperationID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOperationNotFound, update.OperationID)
	}
	if !op.Status.CanTransitionTo(update.Status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, op.Status, update.Status)
	}
	op.Apply(update, m.now())
	return nil
}

// SessionProgress implements ports.ConversionTracker.
func (m *MemoryTracker) SessionProgress(ctx context.Context, sessionID string) (domain.SessionProgress, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionProgress{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[domain.ConversionState]int)
	for _, op := range m.ops {
		if op.SessionID == sessionID {
			counts[op.Status]++
		}
	}
	return domain.SummariseProgress(sessionID, counts), nil
}

// SessionOperations implements ports.ConversionTracker. Newest operations come first.
func (m *MemoryTracker) SessionOperations(ctx context.Context, sessionID string, limit int) ([]domain.ConversionOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(op *domain.ConversionOperation) bool { return op.SessionID == sessionID }, limit), nil
}

// Prune removes operations last updated before the cutoff.
func (m *MemoryTracker) Prune(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, op := range m.ops {
		if op.UpdatedAt.Before(before) {
			delete(m.ops, id)
			delete(m.seq, id)
			removed++
		}
	}
	return removed, nil
}

// ExportJSON writes every operation to dest as JSON lines.
func (m *MemoryTracker) ExportJSON(ctx context.Context, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	ops := m.collect(func(*domain.ConversionOperation) bool { return true }, 0)
	m.mu.Unlock()
	return writeJSONL(dest, ops)
}

// Close implements ports.OperationStore.
func (m *MemoryTracker) Close() error { return nil }

func (m *MemoryTracker) collect(keep func(*domain.ConversionOperation) bool, limit int) []domain.ConversionOperation {
	var out []domain.ConversionOperation
	for _, op := range m.ops {
		if keep(op) {
			out = append(out, cloneOperation(*op))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seq[out[i].ID] > m.seq[out[j].ID]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func newOperation(id string, req domain.ConversionRequest, now time.Time) domain.ConversionOperation {
	userID := req.UserID
	if userID == "" {
		userID = domain.DefaultUserID
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	opType := req.OperationType
	if opType == "" {
		opType = domain.CommandShell
	}
	return domain.ConversionOperation{
		ID:              id,
		SessionID:       req.SessionID,
		UserID:          userID,
		Type:            opType,
		OriginalCommand: req.OriginalCommand,
		Priority:        priority,
		ContextFiles:    append([]string(nil), req.ContextFiles...),
		Status:          domain.StateCreated,
		Metadata:        copyMetadata(req.Metadata),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func cloneOperation(op domain.ConversionOperation) domain.ConversionOperation {
	op.ContextFiles = append([]string(nil), op.ContextFiles...)
	op.Metadata = copyMetadata(op.Metadata)
	if op.CompletedAt != nil {
		completed := *op.CompletedAt
		op.CompletedAt = &completed
	}
	return op
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeJSONL(dest string, ops []domain.ConversionOperation) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, op := range ops {
		b, err := json.Marshal(op)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.OperationStore = (*MemoryTracker)(nil)
