// Package auditlog keeps an append-only record of live trades.
package auditlog

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/purse/internal/domain"
)

const (
	defaultAuditDir   = "./wal/audit"
	auditSegmentLimit = 1000
	auditMaxSegments  = 100
	tradeKeyPrefix    = "trade_"
)

// WALStore persists executed trades in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the audit log under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultAuditDir
	}

	return newWALStore(gowal.Config{
		Dir:              dir,
		Prefix:           "audit_",
		SegmentThreshold: auditSegmentLimit,
		MaxSegments:      auditMaxSegments,
		IsInSyncDiskMode: true,
	})
}

func newWALStore(cfg gowal.Config) (*WALStore, error) {
	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade audit WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes the trade record and returns its index.
func (s *WALStore) Append(record domain.TradeRecord) (uint64, error) {
	if s == nil || s.wal == nil {
		return 0, errors.New("trade audit store is not initialized")
	}
	if record.ID == "" {
		return 0, errors.New("trade record id is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return 0, errors.Wrap(err, "marshal trade record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, tradeKeyPrefix+record.ID, payload); err != nil {
		return 0, errors.Wrap(err, "write trade record")
	}
	return nextIndex, nil
}

// Recent returns up to n latest trades, oldest first.
func (s *WALStore) Recent(n int) ([]domain.TradeRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade audit store is not initialized")
	}
	if n <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	entries := make([]domain.TradeRecordEntry, 0, n)
	for idx := current; idx > 0 && len(entries) < n; idx-- {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read trade record %d", idx)
		}
		if key == "" {
			// older segments were rotated away
			break
		}
		if !strings.HasPrefix(key, tradeKeyPrefix) {
			continue
		}

		var record domain.TradeRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}
		entries = append(entries, domain.TradeRecordEntry{Index: idx, Record: record})
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("trade audit store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
