package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/ChihavaJoy/ABCRetailers/domain"
)

// Record constrains the entity shapes the table store accepts: anything
// embedding domain.Entity qualifies.
type Record interface {
	Meta() *domain.Entity
}

// Tables provides generic CRUD over partitioned table entities with
// optimistic concurrency on updates.
type Tables struct {
	svc *aztables.ServiceClient
}

// NewTables wraps an aztables service client.
func NewTables(svc *aztables.ServiceClient) *Tables {
	return &Tables{svc: svc}
}

// Ensure creates the named table if absent. Creating an existing table is
// not an error.
func (t *Tables) Ensure(ctx context.Context, table string) error {
	_, err := t.svc.NewClient(table).CreateTable(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists) {
			return nil
		}
		return mapError("create table "+table, err)
	}
	return nil
}

// DeleteEntity removes one entity by key. Deleting an absent key returns
// ErrNotFound; callers treat that as recoverable.
func (t *Tables) DeleteEntity(ctx context.Context, table, partitionKey, rowKey string) error {
	if _, err := t.svc.NewClient(table).DeleteEntity(ctx, partitionKey, rowKey, nil); err != nil {
		return mapError("delete entity", err)
	}
	return nil
}

// GetEntity fetches one entity by key. A missing key returns ErrNotFound,
// not a transport fault.
func GetEntity[T any, PT interface {
	*T
	Record
}](ctx context.Context, t *Tables, table, partitionKey, rowKey string) (*T, error) {
	resp, err := t.svc.NewClient(table).GetEntity(ctx, partitionKey, rowKey, nil)
	if err != nil {
		return nil, mapError("get entity", err)
	}
	return decodeEntity[T, PT](resp.Value)
}

// AddEntity inserts a new entity. The key pair must be unoccupied; a
// duplicate fails with ErrConflict. The version token assigned by the
// backend is stamped onto the entity.
func AddEntity[T any, PT interface {
	*T
	Record
}](ctx context.Context, t *Tables, table string, entity PT) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	resp, err := t.svc.NewClient(table).AddEntity(ctx, payload, nil)
	if err != nil {
		return mapError("add entity", err)
	}
	entity.Meta().Version = resp.ETag
	return nil
}

// UpdateEntity replaces a stored entity in full. The entity must carry the
// version token from a prior read; a stale token fails with
// ErrPreconditionFailed and the caller must re-read before retrying.
func UpdateEntity[T any, PT interface {
	*T
	Record
}](ctx context.Context, t *Tables, table string, entity PT) error {
	etag := entity.Meta().Version
	if etag == "" {
		// An update without a token from a prior read would be a blind
		// overwrite; reject it before it reaches the backend.
		return ErrPreconditionFailed
	}
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	opts := &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace}
	resp, err := t.svc.NewClient(table).UpdateEntity(ctx, payload, opts)
	if err != nil {
		return mapError("update entity", err)
	}
	entity.Meta().Version = resp.ETag
	return nil
}

// EntityPager walks a full-table scan lazily, one backend page at a time.
// It is one-shot: once exhausted it cannot be restarted. Ordering is
// backend-defined; callers needing order must sort client-side.
type EntityPager[T any] struct {
	pager *runtime.Pager[aztables.ListEntitiesResponse]
}

// More reports whether another page may be available.
func (p *EntityPager[T]) More() bool { return p.pager.More() }

// ListEntities starts a lazy scan of every entity in the table.
func ListEntities[T any, PT interface {
	*T
	Record
}](t *Tables, table string) *EntityPager[T] {
	return &EntityPager[T]{pager: t.svc.NewClient(table).NewListEntitiesPager(nil)}
}

// NextPage fetches and decodes the next page of entities.
func (p *EntityPager[T]) NextPage(ctx context.Context) ([]*T, error) {
	resp, err := p.pager.NextPage(ctx)
	if err != nil {
		return nil, mapError("list entities", err)
	}
	out := make([]*T, 0, len(resp.Entities))
	for _, raw := range resp.Entities {
		var e T
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}

// ListAllEntities drains a full scan into memory. Fine at back-office scale;
// callers that need a different grouping than the partition key filter the
// result client-side.
func ListAllEntities[T any, PT interface {
	*T
	Record
}](ctx context.Context, t *Tables, table string) ([]*T, error) {
	pager := ListEntities[T, PT](t, table)
	var out []*T
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
	}
	return out, nil
}

func decodeEntity[T any, PT interface {
	*T
	Record
}](data []byte) (*T, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
