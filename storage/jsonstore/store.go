// Package jsonstore keeps the gradebook Document in a single JSON file.
//
// Reading never fails: a missing, empty, unreadable or malformed file is replaced by the seed
// document, and structural defects are repaired and written back straight away. Each of these
// substitutions is reported as a RecoveryEvent.
package jsonstore

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
)

type RecoveryReason string

const (
	ReasonMissing    RecoveryReason = "missing"
	ReasonEmpty      RecoveryReason = "empty"
	ReasonUnreadable RecoveryReason = "unreadable"
	ReasonMalformed  RecoveryReason = "malformed"
	ReasonNotObject  RecoveryReason = "not_object"
	ReasonRepaired   RecoveryReason = "repaired"
)

// RecoveryEvent describes a load that did not return the persisted content as is.
type RecoveryEvent struct {
	Path    string
	Reason  RecoveryReason
	Err     error    // underlying read/parse error, if any
	Repairs []string // what the repair pass changed (ReasonRepaired only)
}

// Fallback reports whether the persisted content was discarded for the seed document.
func (ev RecoveryEvent) Fallback() bool {
	return ev.Reason != ReasonRepaired
}

type Options struct {
	Path   string
	Logger core.Logger

	// Seed builds the document used when the file holds nothing usable. Defaults to gradebook.DefaultDocument.
	Seed func(now time.Time) gradebook.Document

	// OnRecovery, if set, is called for every RecoveryEvent.
	OnRecovery func(RecoveryEvent)
}

type Store struct {
	opts Options
	mu   sync.Mutex // one lock covers load-mutate-save
}

var _ gradebook.Store = (*Store)(nil)

var nowFunc = time.Now // mockable

func New(opts Options) *Store {
	if opts.Seed == nil {
		opts.Seed = gradebook.DefaultDocument
	}
	return &Store{opts: opts}
}

func (s *Store) Path() string { return s.opts.Path }

func (s *Store) Load(ctx context.Context) gradebook.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Save(ctx context.Context, doc gradebook.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *Store) Update(ctx context.Context, fn func(doc *gradebook.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if err := fn(&doc); err != nil {
		return err
	}
	return s.save(doc)
}

func (s *Store) load() gradebook.Document {
	data, err := ioutil.ReadFile(s.opts.Path)
	switch {
	case os.IsNotExist(err):
		return s.fallback(ReasonMissing, nil)
	case err != nil:
		return s.fallback(ReasonUnreadable, err)
	case len(data) == 0:
		return s.fallback(ReasonEmpty, nil)
	}

	doc, repairs, err := decode(data)
	if err != nil {
		reason := ReasonMalformed
		if errors.Cause(err) == errNotObject {
			reason = ReasonNotObject
		}
		return s.fallback(reason, err)
	}
	if len(repairs) > 0 {
		s.recovered(RecoveryEvent{Path: s.opts.Path, Reason: ReasonRepaired, Repairs: repairs})
		_ = s.save(doc)
	}
	return doc
}

func (s *Store) fallback(reason RecoveryReason, err error) gradebook.Document {
	s.recovered(RecoveryEvent{Path: s.opts.Path, Reason: reason, Err: err})
	doc := s.opts.Seed(nowFunc())
	_ = s.save(doc)
	return doc
}

func (s *Store) recovered(ev RecoveryEvent) {
	if s.opts.Logger != nil {
		flds := core.Fields{"path": ev.Path, "reason": string(ev.Reason)}
		if len(ev.Repairs) > 0 {
			flds["repairs"] = ev.Repairs
		}
		msg := "document repaired"
		if ev.Fallback() {
			msg = "document replaced by default data"
		}
		if ev.Err != nil {
			s.opts.Logger.Warn(msg, flds, ev.Err)
		} else {
			s.opts.Logger.Warn(msg, flds)
		}
	}
	if s.opts.OnRecovery != nil {
		s.opts.OnRecovery(ev)
	}
}

// save writes doc next to the target then renames it over the target.
func (s *Store) save(doc gradebook.Document) error {
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return s.persistErr(errors.Wrap(err, "encoding document"))
	}

	dir := filepath.Dir(s.opts.Path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(s.opts.Path)+".*.tmp")
	if err != nil {
		return s.persistErr(errors.Wrap(err, "creating temp file"))
	}
	tmpName := tmp.Name()
	if err = tmp.Chmod(0644); err == nil {
		_, err = tmp.Write(data)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return s.persistErr(errors.Wrap(err, "writing temp file"))
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return s.persistErr(errors.Wrap(err, "closing temp file"))
	}
	if err = os.Rename(tmpName, s.opts.Path); err != nil {
		_ = os.Remove(tmpName)
		return s.persistErr(errors.Wrap(err, "replacing document"))
	}
	return nil
}

func (s *Store) persistErr(err error) error {
	pErr := &core.PersistenceError{Path: s.opts.Path, Err: err}
	if s.opts.Logger != nil {
		s.opts.Logger.Error("saving document failed", pErr)
	}
	return pErr
}
