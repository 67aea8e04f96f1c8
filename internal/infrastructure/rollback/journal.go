// Package rollback implements the process-wide RollbackJournal service:
// batch transactions of reversible mutations, replayed in reverse
// insertion order on failure, with a stale-transaction sweeper.
package rollback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainrollback "github.com/flowforge/streamline/internal/domain/rollback"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

// Service implements ports.RollbackJournal as an in-memory, single-
// writer store: the orchestrator is the only writer, reads are exclusive
// per transaction id. Reversal of a logged mutation is applied through
// entities, the same EntityService the loader engine wrote through.
type Service struct {
	mu           sync.Mutex
	transactions map[string]*domainrollback.Transaction
	maxAge       time.Duration
	now          func() time.Time
	entities     ports.EntityService
}

// NewService builds a rollback journal service. maxAge is the
// MAX_TRANSACTION_AGE_MS the sweeper enforces; entities is where CREATE/
// UPDATE/DELETE reversal is actually applied.
func NewService(entities ports.EntityService, maxAge time.Duration) *Service {
	return &Service{
		transactions: make(map[string]*domainrollback.Transaction),
		maxAge:       maxAge,
		now:          time.Now,
		entities:     entities,
	}
}

func (s *Service) Begin(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	txID := uuid.NewString()
	s.transactions[txID] = &domainrollback.Transaction{
		ID:        txID,
		Status:    domainrollback.StatusPending,
		CreatedAt: s.now(),
	}
	return txID
}

func (s *Service) Append(_ context.Context, txID string, entry domainrollback.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txID]
	if !ok {
		return pipelineerr.Newf(pipelineerr.Infrastructure, "unknown rollback transaction %s", txID)
	}
	if tx.Terminal() {
		return pipelineerr.Newf(pipelineerr.Infrastructure, "transaction %s is no longer pending", txID)
	}
	entry.CreatedAt = s.now()
	tx.Append(entry)
	return nil
}

func (s *Service) Commit(_ context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txID]
	if !ok {
		return pipelineerr.Newf(pipelineerr.Infrastructure, "unknown rollback transaction %s", txID)
	}
	tx.Status = domainrollback.StatusCommitted
	return nil
}

// Rollback replays every entry in reverse insertion order: CREATE →
// delete, UPDATE → restore previous state, DELETE → re-insert previous
// state.
func (s *Service) Rollback(ctx context.Context, txID string) (int, error) {
	return s.rollbackFrom(ctx, txID, 0, domainrollback.StatusRolledBack)
}

// PartialRollback rewinds only the suffix of entries from fromIndex
// onward, leaving the prefix committed in place.
func (s *Service) PartialRollback(ctx context.Context, txID string, fromIndex int) (int, error) {
	return s.rollbackFrom(ctx, txID, fromIndex, domainrollback.StatusPartialRollback)
}

func (s *Service) rollbackFrom(ctx context.Context, txID string, fromIndex int, newStatus domainrollback.Status) (int, error) {
	s.mu.Lock()
	tx, ok := s.transactions[txID]
	if !ok {
		s.mu.Unlock()
		return 0, pipelineerr.Newf(pipelineerr.Infrastructure, "unknown rollback transaction %s", txID)
	}
	if fromIndex < 0 || fromIndex > len(tx.Entries) {
		s.mu.Unlock()
		return 0, pipelineerr.Newf(pipelineerr.Infrastructure, "rollback fromIndex %d out of range", fromIndex)
	}
	toReverse := make([]domainrollback.Entry, len(tx.Entries)-fromIndex)
	copy(toReverse, tx.Entries[fromIndex:])
	s.mu.Unlock()

	rolled := 0
	var firstErr error
	for i := len(toReverse) - 1; i >= 0; i-- {
		if err := s.reverse(ctx, toReverse[i]); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rolled++
	}

	s.mu.Lock()
	tx.Status = newStatus
	s.mu.Unlock()
	return rolled, firstErr
}

// reverse undoes a single journal entry against the entity store.
func (s *Service) reverse(ctx context.Context, e domainrollback.Entry) error {
	switch e.Type {
	case domainrollback.OpCreate:
		return s.entities.Delete(ctx, e.EntityType, e.EntityID)
	case domainrollback.OpUpdate:
		return s.entities.Update(ctx, e.EntityType, e.EntityID, e.PreviousState)
	case domainrollback.OpDelete:
		_, err := s.entities.Create(ctx, e.EntityType, e.PreviousState)
		return err
	default:
		return pipelineerr.Newf(pipelineerr.Infrastructure, "unknown rollback entry type %q", e.Type)
	}
}

func (s *Service) Transaction(_ context.Context, txID string) (domainrollback.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[txID]
	if !ok {
		return domainrollback.Transaction{}, false
	}
	return *tx, true
}

// Sweep removes transactions that are either terminal or older than
// maxAge, the stale-transaction sweeper run on CLEANUP_INTERVAL_MS (§5).
func (s *Service) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, tx := range s.transactions {
		if tx.Terminal() || tx.Expired(now, s.maxAge) {
			delete(s.transactions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on interval until ctx is cancelled, matching
// the CLEANUP_INTERVAL_MS timer described in §5.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

var _ ports.RollbackJournal = (*Service)(nil)
