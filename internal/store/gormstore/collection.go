package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nestegg-finance/backend/internal/models"
	"github.com/nestegg-finance/backend/internal/store"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

type document[T any] interface {
	*T
	Meta() *models.DefaultModel
}

type collection[T any, P document[T]] struct {
	db   *gorm.DB
	feed *feed
	name string

	// table the documents are stored in
	table string

	// columns maps document field names to database columns
	columns map[string]string
}

func newCollection[T any, P document[T]](db *gorm.DB, f *feed, name string) (*collection[T, P], error) {
	s, err := schema.Parse(new(T), &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("parsing schema for %s: %w", name, err)
	}

	columns := make(map[string]string, len(s.Fields))
	for _, field := range s.Fields {
		if field.DBName == "" {
			continue
		}

		jsonName, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if jsonName == "" || jsonName == "-" {
			continue
		}

		columns[jsonName] = field.DBName
	}

	return &collection[T, P]{
		db:      db,
		feed:    f,
		name:    name,
		table:   s.Table,
		columns: columns,
	}, nil
}

// fail translates database errors to store errors.
//
// Documents rejecting the write are returned as they are.
func (c *collection[T, P]) fail(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrResourceNotFound):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case errors.Is(err, store.ErrInvalidQuery), models.Rejected(err):
		return err
	}

	return &store.Error{Op: op, Collection: c.name, Err: err}
}

func (c *collection[T, P]) column(field string) (string, error) {
	column, ok := c.columns[field]
	if !ok {
		return "", fmt.Errorf("%w: %s has no field %s", store.ErrInvalidQuery, c.name, field)
	}

	return column, nil
}

func (c *collection[T, P]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	var doc T

	err := c.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return doc, c.fail("get", err)
	}

	return doc, nil
}

func (c *collection[T, P]) Query(ctx context.Context, q store.Query) ([]T, error) {
	tx := c.db.WithContext(ctx).Model(new(T))

	for _, f := range q.Filters {
		column, err := c.column(f.Field)
		if err != nil {
			return nil, err
		}

		expr, err := condition(column, f)
		if err != nil {
			return nil, err
		}

		tx = tx.Where(expr)
	}

	for _, o := range q.OrderBy {
		column, err := c.column(o.Field)
		if err != nil {
			return nil, err
		}

		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: o.Descending})
	}

	docs := []T{}
	err := tx.Find(&docs).Error
	if err != nil {
		return nil, c.fail("query", err)
	}

	return docs, nil
}

func condition(column string, f store.Filter) (clause.Expression, error) {
	col := clause.Column{Name: column}

	switch f.Op {
	case store.Equal:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case store.NotEqual:
		return clause.Neq{Column: col, Value: f.Value}, nil
	case store.Less:
		return clause.Lt{Column: col, Value: f.Value}, nil
	case store.LessOrEqual:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case store.Greater:
		return clause.Gt{Column: col, Value: f.Value}, nil
	case store.GreaterOrEqual:
		return clause.Gte{Column: col, Value: f.Value}, nil
	}

	return nil, fmt.Errorf("%w: unknown operator %q", store.ErrInvalidQuery, f.Op)
}

func (c *collection[T, P]) Add(ctx context.Context, doc *T) (uuid.UUID, error) {
	err := c.db.WithContext(ctx).Create(doc).Error
	if err != nil {
		return uuid.Nil, c.fail("add", err)
	}

	return P(doc).Meta().ID, nil
}

// Update loads the document first so that its hooks run on a
// complete record.
func (c *collection[T, P]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	columns := make(map[string]any, len(fields))
	for field, value := range fields {
		column, err := c.column(field)
		if err != nil {
			return err
		}

		if column == "id" {
			return fmt.Errorf("%w: the id of a document can not be updated", store.ErrInvalidQuery)
		}

		columns[column] = value
	}

	existing, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	err = c.db.WithContext(ctx).Model(P(&existing)).Updates(columns).Error
	if err != nil {
		return c.fail("update", err)
	}

	return nil
}

func (c *collection[T, P]) BatchDelete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	err := c.db.WithContext(ctx).Where("id IN ?", ids).Delete(new(T)).Error
	if err != nil {
		return c.fail("delete", err)
	}

	return nil
}

// Subscribe runs the query again every time the table changes. Changes
// arriving while fn is running are coalesced into one refresh.
func (c *collection[T, P]) Subscribe(ctx context.Context, q store.Query, fn func([]T)) (store.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)

	// Listen before reading the first snapshot so that no change is lost
	changes, remove := c.feed.listen(c.table)

	snapshot, err := c.Query(ctx, q)
	if err != nil {
		remove()
		cancel()
		return nil, err
	}

	go func() {
		defer remove()

		fn(snapshot)

		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				docs, err := c.Query(ctx, q)
				if ctx.Err() != nil {
					return
				}

				if err != nil {
					log.Error().Err(err).Str("collection", c.name).Msg("refreshing subscription")
					continue
				}

				fn(docs)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}
