package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/feral-file/ff-marketplace/internal/domain"
)

// Sink durably stores audit records before they become visible in memory
//
//go:generate mockgen -source=ledger.go -destination=../mocks/audit_sink.go -package=mocks -mock_names=Sink=MockAuditSink
type Sink interface {
	// AppendAuditRecord persists a record. A failure aborts the append.
	AppendAuditRecord(ctx context.Context, record domain.AuditRecord) error
}

// Ledger is the append-only, monotonically indexed log of every state change
type Ledger struct {
	mu      sync.RWMutex
	offset  uint64
	records []domain.AuditRecord
	sink    Sink
}

// NewLedger creates an empty ledger whose first index is offset.
// sink may be nil, in which case records only live in memory.
func NewLedger(offset uint64, sink Sink) *Ledger {
	return &Ledger{
		offset: offset,
		sink:   sink,
	}
}

// Append assigns the next index to record and stores it.
// The index is offset plus the current length and is never reused.
func (l *Ledger) Append(ctx context.Context, record domain.AuditRecord) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record.Index = l.offset + uint64(len(l.records))

	if l.sink != nil {
		if err := l.sink.AppendAuditRecord(ctx, record); err != nil {
			return 0, fmt.Errorf("failed to persist audit record %d: %w", record.Index, err)
		}
	}

	l.records = append(l.records, record)

	return record.Index, nil
}

// NextIndex returns the index the next appended record will receive
func (l *Ledger) NextIndex() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.offset + uint64(len(l.records))
}

// Get returns the record stored at index
func (l *Ledger) Get(index uint64) (domain.AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < l.offset || index-l.offset >= uint64(len(l.records)) {
		return domain.AuditRecord{}, fmt.Errorf("%w: %d", domain.ErrIndexOutOfRange, index)
	}

	return l.records[index-l.offset], nil
}

// ByToken returns every record that touches the token, oldest first
func (l *Ledger) ByToken(id domain.TokenID) []domain.AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var history []domain.AuditRecord
	for _, r := range l.records {
		if r.TokenID == id {
			history = append(history, r)
		}
	}

	return history
}

// Count returns the number of records held by the ledger
func (l *Ledger) Count() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return uint64(len(l.records))
}

// Records returns up to limit records starting at position offset (not index)
func (l *Ledger) Records(offset, limit uint64) []domain.AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return domain.Page(l.records, offset, limit)
}

// ImportHistory appends records verbatim, bypassing the sink and every
// ordering check. It exists for migrations and startup restore only: the
// caller is responsible for the records being contiguous with the ledger,
// otherwise Get and NextIndex no longer agree with the stored indices.
func (l *Ledger) ImportHistory(records []domain.AuditRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, records...)
}
