package gormstore

import (
	"sync"

	"gorm.io/gorm"
)

// feed notifies listeners about changed tables.
type feed struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

func newFeed() *feed {
	return &feed{
		listeners: make(map[string]map[chan struct{}]struct{}),
	}
}

// register publishes every successful write on the database to the feed.
func (f *feed) register(db *gorm.DB) error {
	err := db.Callback().Create().After("*").Register("nestegg:feed_create", f.changed)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("nestegg:feed_update", f.changed)
	if err != nil {
		return err
	}

	return db.Callback().Delete().After("*").Register("nestegg:feed_delete", f.changed)
}

func (f *feed) changed(db *gorm.DB) {
	if db.Error != nil || db.RowsAffected == 0 || db.Statement.Schema == nil {
		return
	}

	f.notify(db.Statement.Schema.Table)
}

// listen returns a channel that receives a value after the table changed.
//
// The channel has a buffer of one and notifications are dropped while it
// is full, so any number of changes before the next receive count as one.
func (f *feed) listen(table string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	if f.listeners[table] == nil {
		f.listeners[table] = make(map[chan struct{}]struct{})
	}
	f.listeners[table][ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.listeners[table], ch)
		f.mu.Unlock()
	}
}

func (f *feed) notify(table string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.listeners[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
