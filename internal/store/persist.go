package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"agenda/internal/domain"
)

// enqueuePersistLocked hands the current snapshot to the write queue
// without blocking the mutator. The queue holds at most one pending
// snapshot; a newer one replaces whatever is still waiting, so the worker
// always writes the latest state.
func (s *Store) enqueuePersistLocked() {
	snap := s.snapshotLocked()
	for {
		select {
		case s.queue <- snap:
			return
		default:
		}
		// Queue full: drop the stale pending snapshot and try again.
		select {
		case <-s.queue:
		default:
		}
	}
}

func (s *Store) runPersistLoop() {
	defer close(s.workerDone)
	var lastErr error
	for {
		select {
		case snap := <-s.queue:
			lastErr = s.writeSnapshot(snap)
		case req := <-s.flushCh:
			select {
			case snap := <-s.queue:
				lastErr = s.writeSnapshot(snap)
			default:
			}
			req <- lastErr
		case <-s.done:
			select {
			case snap := <-s.queue:
				_ = s.writeSnapshot(snap)
			default:
			}
			return
		}
	}
}

func (s *Store) writeSnapshot(snap domain.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()

	b, err := json.Marshal(snap)
	if err == nil {
		err = s.kv.Set(ctx, s.key, b)
	}
	s.metrics.SnapshotPersisted(err)
	if err != nil {
		// Memory is ahead of storage now; the next successful persist
		// catches up because every write carries the full snapshot.
		s.log.Error("snapshot persist failed", slog.Any("err", err))
		return err
	}
	s.log.Debug("snapshot persisted",
		slog.Int("clients", len(snap.Clients)),
		slog.Int("services", len(snap.Services)),
		slog.Int("appointments", len(snap.Appointments)),
	)
	return nil
}

// Flush writes any pending snapshot synchronously and reports the result
// of the most recent write. Mutators never block on storage; shutdown and
// tests use Flush to observe whether the persisted state is current.
func (s *Store) Flush(ctx context.Context) error {
	req := make(chan error, 1)
	select {
	case s.flushCh <- req:
	case <-s.workerDone:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending state and stops the persist worker.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	if errors.Is(err, ErrClosed) {
		err = nil
	}
	s.closeOnce.Do(func() { close(s.done) })
	select {
	case <-s.workerDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
