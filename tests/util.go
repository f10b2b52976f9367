package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/store"
	"github.com/trezcool/academia/storage/database/inmem"
)

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level   string
	Message string
	Args    []interface{}
}

// Logger records log entries instead of reporting them.
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return &Logger{} }

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Message: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.log("fatal", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}

// Messages returns the recorded messages of level ("" for all levels).
func (l *Logger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// NewStore returns an empty in-memory store publishing to the returned Hub.
func NewStore() (*inmemdb.DB, *store.Hub) {
	hub := store.NewHub(NewLogger())
	return inmemdb.Open(hub), hub
}

// InsertRow inserts row into collection, failing the test on error.
func InsertRow(t *testing.T, st store.Store, collection string, row store.Row) store.Row {
	t.Helper()
	inserted, err := store.InsertOne(context.Background(), st, collection, row)
	if err != nil {
		t.Fatalf("InsertRow(%s) failed: %v", collection, err)
	}
	return inserted
}

// GetRow returns the row of collection with id, failing the test when it is missing.
func GetRow(t *testing.T, st store.Store, collection, id string) store.Row {
	t.Helper()
	row, found, err := store.SelectByID(context.Background(), st, collection, id)
	if err != nil {
		t.Fatalf("GetRow(%s) failed: %v", collection, err)
	}
	if !found {
		t.Fatalf("GetRow(%s): %s not found", collection, id)
	}
	return row
}

// NewValidator returns a validator with the core & account validators registered.
func NewValidator() *validator.Validate {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := core.NewValidator(translator)
	account.InitValidators(validate, translator)
	return validate
}
