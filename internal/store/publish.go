package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/core"
)

// Publisher is the outbound side of the remote-write pipeline.
// *amqp.Client satisfies it.
type Publisher interface {
	PublishRecordSync(ctx context.Context, msg amqp.RecordSyncMessage) error
}

// SyncedStore is the registered-session backend. Every mutation is
// applied to the local store immediately (the session stays usable) and
// then published for the sync worker to replay against the hosted record
// store. A publish failure is surfaced to the caller but the local write
// stands; local and hosted state may diverge until a later write
// succeeds.
type SyncedStore struct {
	local     Store
	publisher Publisher
	userID    string
}

// NewSyncedStore wraps the local store with the publishing pipeline,
// scoping every message to the given user.
func NewSyncedStore(local Store, publisher Publisher, userID string) *SyncedStore {
	return &SyncedStore{local: local, publisher: publisher, userID: userID}
}

func (s *SyncedStore) Load(ctx context.Context) (core.Snapshot, error) {
	return s.local.Load(ctx)
}

func (s *SyncedStore) PutTransaction(ctx context.Context, t core.Transaction) error {
	if err := s.local.PutTransaction(ctx, t); err != nil {
		return err
	}
	return s.publishPut(ctx, amqp.EntityTransaction, t.ID, t)
}

func (s *SyncedStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.local.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	return s.publishDelete(ctx, amqp.EntityTransaction, id)
}

func (s *SyncedStore) PutCategory(ctx context.Context, c core.Category) error {
	if err := s.local.PutCategory(ctx, c); err != nil {
		return err
	}
	return s.publishPut(ctx, amqp.EntityCategory, c.ID, c)
}

func (s *SyncedStore) DeleteCategory(ctx context.Context, id string) error {
	if err := s.local.DeleteCategory(ctx, id); err != nil {
		return err
	}
	return s.publishDelete(ctx, amqp.EntityCategory, id)
}

func (s *SyncedStore) PutBudget(ctx context.Context, b core.Budget) error {
	if err := s.local.PutBudget(ctx, b); err != nil {
		return err
	}
	return s.publishPut(ctx, amqp.EntityBudget, b.ID, b)
}

func (s *SyncedStore) ReplaceAll(ctx context.Context, snap core.Snapshot) error {
	if err := s.local.ReplaceAll(ctx, snap); err != nil {
		return err
	}
	record, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	msg := amqp.NewRecordSyncMessage(amqp.EntitySnapshot, amqp.OpReplaceAll, "", s.userID, record)
	if err := s.publisher.PublishRecordSync(ctx, msg); err != nil {
		return fmt.Errorf("queue remote write: %w", err)
	}
	return nil
}

func (s *SyncedStore) Close() error { return s.local.Close() }

func (s *SyncedStore) publishPut(ctx context.Context, entity, id string, record any) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entity, err)
	}
	msg := amqp.NewRecordSyncMessage(entity, amqp.OpPut, id, s.userID, encoded)
	if err := s.publisher.PublishRecordSync(ctx, msg); err != nil {
		return fmt.Errorf("queue remote write: %w", err)
	}
	return nil
}

func (s *SyncedStore) publishDelete(ctx context.Context, entity, id string) error {
	msg := amqp.NewRecordSyncMessage(entity, amqp.OpDelete, id, s.userID, nil)
	if err := s.publisher.PublishRecordSync(ctx, msg); err != nil {
		return fmt.Errorf("queue remote write: %w", err)
	}
	return nil
}
