// Package inmem holds the gradebook Document in memory. It is meant for tests.
package inmem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/trezcool/gradebook/core/gradebook"
)

type Store struct {
	mutex sync.RWMutex
	doc   gradebook.Document
	saves int
}

var _ gradebook.Store = (*Store)(nil)

func New(doc gradebook.Document) *Store {
	doc.Normalize()
	return &Store{doc: clone(doc)}
}

func (s *Store) Load(ctx context.Context) gradebook.Document {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return clone(s.doc)
}

func (s *Store) Save(ctx context.Context, doc gradebook.Document) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.save(doc)
	return nil
}

func (s *Store) Update(ctx context.Context, fn func(doc *gradebook.Document) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc := clone(s.doc)
	if err := fn(&doc); err != nil {
		return err
	}
	s.save(doc)
	return nil
}

// Saves returns how many times the document was written.
func (s *Store) Saves() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.saves
}

func (s *Store) save(doc gradebook.Document) {
	doc.Normalize()
	s.doc = clone(doc)
	s.saves++
}

// clone deep-copies doc so that callers never share slices or maps with the store.
func clone(doc gradebook.Document) gradebook.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var cp gradebook.Document
	if err := json.Unmarshal(data, &cp); err != nil {
		panic(err)
	}
	return cp
}
