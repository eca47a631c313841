package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
	"github.com/trezcool/gradebook/storage/jsonstore"
)

// Entry is a message recorded by Logger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger that records every message instead of printing it.
type Logger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Entries returns the recorded messages of the given level, all of them when level is empty.
func (l *Logger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []Entry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

// NewJSONStore returns a store backed by a file in a fresh temp dir, seeded with doc.
func NewJSONStore(t *testing.T, doc gradebook.Document, logger core.Logger) *jsonstore.Store {
	t.Helper()
	store := jsonstore.New(jsonstore.Options{
		Path:   filepath.Join(t.TempDir(), "data.json"),
		Logger: logger,
	})
	if err := store.Save(context.Background(), doc); err != nil {
		t.Fatalf("NewJSONStore() failed: %v", err)
	}
	return store
}

// CreateStudent adds a student through svc.
func CreateStudent(t *testing.T, svc gradebook.Service, name, email, classID string) gradebook.Student {
	t.Helper()
	st, err := svc.AddStudent(context.Background(), gradebook.NewStudent{Name: name, Email: email, ClassID: classID})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}
