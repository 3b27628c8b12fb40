package firestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type document[T any] interface {
	*T
	Meta() *models.DefaultModel
}

type collection[T any, P document[T]] struct {
	client *firestore.Client
	ref    *firestore.CollectionRef
	name   string
	codec  codec[T]
}

func newCollection[T any, P document[T]](client *firestore.Client, name string, c codec[T]) *collection[T, P] {
	return &collection[T, P]{
		client: client,
		ref:    client.Collection(name),
		name:   name,
		codec:  c,
	}
}

func (c *collection[T, P]) fail(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case errors.Is(err, store.ErrInvalidQuery), models.Rejected(err):
		return err
	}

	return &store.Error{Op: op, Collection: c.name, Err: err}
}

// path returns the Firestore field path for a document field.
func (c *collection[T, P]) path(field string) (string, error) {
	if !c.codec.fields[field] {
		return "", fmt.Errorf("%w: %s has no field %s", store.ErrInvalidQuery, c.name, field)
	}

	if field == "id" {
		return firestore.DocumentID, nil
	}

	return field, nil
}

func (c *collection[T, P]) decode(snap *firestore.DocumentSnapshot) (T, error) {
	r := &reader{data: snap.Data()}
	doc := c.codec.decode(r)
	if r.err != nil {
		return doc, &store.Error{Op: "decode", Collection: c.name, Err: fmt.Errorf("document %s: %w", snap.Ref.ID, r.err)}
	}

	meta := P(&doc).Meta()
	id, err := uuid.Parse(snap.Ref.ID)
	if err != nil {
		return doc, &store.Error{Op: "decode", Collection: c.name, Err: fmt.Errorf("document %s: %w", snap.Ref.ID, err)}
	}
	meta.ID = id

	// Pending server timestamps are not set yet in local snapshots
	meta.CreatedAt = snap.CreateTime.In(time.UTC)
	if t := r.optionalTime("createdAt"); t != nil {
		meta.CreatedAt = *t
	}

	meta.UpdatedAt = snap.UpdateTime.In(time.UTC)
	if t := r.optionalTime("updatedAt"); t != nil {
		meta.UpdatedAt = *t
	}

	return doc, nil
}

func (c *collection[T, P]) decodeAll(snaps []*firestore.DocumentSnapshot) ([]T, error) {
	docs := make([]T, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := c.decode(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (c *collection[T, P]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	snap, err := c.ref.Doc(id.String()).Get(ctx)
	if err != nil {
		var doc T
		return doc, c.fail("get", err)
	}

	return c.decode(snap)
}

func (c *collection[T, P]) query(q store.Query) (firestore.Query, error) {
	query := c.ref.Query

	for _, f := range q.Filters {
		path, err := c.path(f.Field)
		if err != nil {
			return query, err
		}

		if !f.Op.Valid() {
			return query, fmt.Errorf("%w: unknown operator %q", store.ErrInvalidQuery, f.Op)
		}

		v := value(f.Value)
		if path == firestore.DocumentID {
			v = c.ref.Doc(fmt.Sprint(v))
		}

		query = query.Where(path, string(f.Op), v)
	}

	for _, o := range q.OrderBy {
		path, err := c.path(o.Field)
		if err != nil {
			return query, err
		}

		direction := firestore.Asc
		if o.Descending {
			direction = firestore.Desc
		}

		query = query.OrderBy(path, direction)
	}

	return query, nil
}

func (c *collection[T, P]) Query(ctx context.Context, q store.Query) ([]T, error) {
	query, err := c.query(q)
	if err != nil {
		return nil, err
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, c.fail("query", err)
	}

	return c.decodeAll(snaps)
}

func (c *collection[T, P]) Add(ctx context.Context, doc *T) (uuid.UUID, error) {
	if err := c.codec.prepare(doc); err != nil {
		return uuid.Nil, err
	}

	meta := P(doc).Meta()
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}

	ref := c.ref.Doc(meta.ID.String())
	data := c.codec.encode(*doc)
	data["createdAt"] = firestore.ServerTimestamp
	data["updatedAt"] = firestore.ServerTimestamp

	if c.codec.unique == nil {
		result, err := ref.Create(ctx, data)
		if err != nil {
			return uuid.Nil, c.fail("add", err)
		}

		meta.CreatedAt = result.UpdateTime.In(time.UTC)
		meta.UpdatedAt = meta.CreatedAt
		return meta.ID, nil
	}

	fields, conflict := c.codec.unique(*doc)
	existing := c.ref.Query
	for _, f := range fields {
		existing = existing.Where(f.name, "==", f.value)
	}

	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snaps, err := tx.Documents(existing.Limit(1)).GetAll()
		if err != nil {
			return err
		}

		if len(snaps) > 0 {
			return conflict
		}

		return tx.Create(ref, data)
	})
	if err != nil {
		return uuid.Nil, c.fail("add", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return uuid.Nil, c.fail("add", err)
	}
	meta.CreatedAt = snap.CreateTime.In(time.UTC)
	meta.UpdatedAt = meta.CreatedAt

	return meta.ID, nil
}

func (c *collection[T, P]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if c.codec.immutable {
		return models.ErrAllocationImmutable
	}

	updates := make([]firestore.Update, 0, len(fields)+1)
	for name, v := range fields {
		path, err := c.path(name)
		if err != nil {
			return err
		}

		if path == firestore.DocumentID || name == "createdAt" || name == "updatedAt" {
			return fmt.Errorf("%w: %s is set by the store", store.ErrInvalidQuery, name)
		}

		updates = append(updates, firestore.Update{Path: path, Value: value(v)})
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	_, err := c.ref.Doc(id.String()).Update(ctx, updates)
	return c.fail("update", err)
}

func (c *collection[T, P]) BatchDelete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	bw := c.client.BulkWriter(ctx)

	jobs := make([]*firestore.BulkWriterJob, 0, len(ids))
	for _, id := range ids {
		job, err := bw.Delete(c.ref.Doc(id.String()))
		if err != nil {
			bw.End()
			return c.fail("delete", err)
		}
		jobs = append(jobs, job)
	}

	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return c.fail("delete", err)
		}
	}

	return nil
}

// Subscribe attaches a snapshot listener to the query. The first snapshot
// is awaited so that invalid queries and connection errors are returned.
func (c *collection[T, P]) Subscribe(ctx context.Context, q store.Query, fn func([]T)) (store.Unsubscribe, error) {
	query, err := c.query(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	it := query.Snapshots(ctx)

	first, err := c.next(it)
	if err != nil {
		it.Stop()
		cancel()
		return nil, err
	}

	go func() {
		defer it.Stop()

		fn(first)

		for {
			docs, err := c.next(it)
			if ctx.Err() != nil {
				return
			}

			if err != nil {
				log.Error().Err(err).Str("collection", c.name).Msg("snapshot listener stopped")
				return
			}

			fn(docs)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}

func (c *collection[T, P]) next(it *firestore.QuerySnapshotIterator) ([]T, error) {
	snap, err := it.Next()
	if err != nil {
		return nil, c.fail("subscribe", err)
	}

	snaps, err := snap.Documents.GetAll()
	if err != nil {
		return nil, c.fail("subscribe", err)
	}

	return c.decodeAll(snaps)
}
