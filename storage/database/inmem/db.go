package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/store"
)

type (
	// DB is an in-memory store.Store. Every write is published to the Hub it was opened with.
	DB struct {
		sync.RWMutex
		tables   map[string]*table
		cascades map[string][]Cascade
		failures map[string]error
		hub      *store.Hub
	}

	table struct {
		rows  map[string]store.Row
		order []string // insertion order
	}

	// Cascade deletes the rows of Collection whose Field references a deleted row.
	Cascade struct {
		Collection string
		Field      string
	}
)

var _ store.Store = (*DB)(nil)

// DefaultCascades mirrors the ON DELETE CASCADE foreign keys of the SQL schema.
var DefaultCascades = map[string][]Cascade{
	store.Grades:    {{Collection: store.Subdivisions, Field: "grade_id"}},
	store.Homework:  {{Collection: store.HomeworkSubmissions, Field: "homework_id"}},
	store.Exams:     {{Collection: store.ExamSubmissions, Field: "exam_id"}, {Collection: store.ExamResults, Field: "exam_id"}},
	store.Products:  {{Collection: store.Orders, Field: "product_id"}},
	store.Students:  {{Collection: store.Attendance, Field: "student_id"}},
	store.Teachers:  {},
	store.Notices:   {},
	store.Enquiries: {},
}

func Open(hub *store.Hub) *DB {
	return &DB{
		tables:   make(map[string]*table),
		cascades: DefaultCascades,
		failures: make(map[string]error),
		hub:      hub,
	}
}

// FailOn makes every subsequent `op` ("select", "insert", "update", "delete", "upsert")
// on collection fail with err. A nil err clears the failure.
func (db *DB) FailOn(op, collection string, err error) {
	db.Lock()
	defer db.Unlock()
	key := op + ":" + collection
	if err == nil {
		delete(db.failures, key)
		return
	}
	db.failures[key] = err
}

func (db *DB) fail(op, collection string) error {
	if err, ok := db.failures[op+":"+collection]; ok {
		return errors.Wrapf(err, "%s %s", op, collection)
	}
	return nil
}

func (db *DB) tableFor(collection string) (*table, error) {
	if !store.IsCollection(collection) {
		return nil, errors.Errorf("unknown collection %q", collection)
	}
	t, ok := db.tables[collection]
	if !ok {
		t = &table{rows: make(map[string]store.Row)}
		db.tables[collection] = t
	}
	return t, nil
}

func (db *DB) publish(changes []store.Change) {
	if db.hub == nil {
		return
	}
	for _, ch := range changes {
		db.hub.Publish(ch)
	}
}

func (db *DB) Select(_ context.Context, collection string, f store.Filter) ([]store.Row, error) {
	db.RLock()
	defer db.RUnlock()

	if err := db.fail("select", collection); err != nil {
		return nil, err
	}
	t, ok := db.tables[collection]
	if !ok {
		if !store.IsCollection(collection) {
			return nil, errors.Errorf("unknown collection %q", collection)
		}
		return []store.Row{}, nil
	}

	rows := make([]store.Row, 0, len(t.order))
	for _, id := range t.order {
		if r := t.rows[id]; matches(r, f) {
			rows = append(rows, copyRow(r))
		}
	}
	if len(f.OrderBy) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, ord := range f.OrderBy {
				c := compare(rows[i][ord.Field], rows[j][ord.Field])
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

func (db *DB) Insert(_ context.Context, collection string, rows ...store.Row) ([]store.Row, error) {
	db.Lock()
	t, err := db.tableFor(collection)
	if err == nil {
		err = db.fail("insert", collection)
	}
	if err != nil {
		db.Unlock()
		return nil, err
	}
	inserted, err := db.insert(t, collection, rows)
	db.Unlock()
	if err != nil {
		return nil, err
	}

	db.publish([]store.Change{{Collection: collection, Op: store.OpInsert}})
	return inserted, nil
}

// insert adds rows to t, all of them or none. The caller holds the lock.
func (db *DB) insert(t *table, collection string, rows []store.Row) ([]store.Row, error) {
	prepared := make([]store.Row, 0, len(rows))
	batch := make(map[string]bool, len(rows))
	for _, r := range rows {
		r = copyRow(r)
		id := r.String("id")
		if id == "" {
			id = uuid.New().String()
			r["id"] = id
		}
		if _, exists := t.rows[id]; exists || batch[id] {
			return nil, errors.Errorf("insert %s: duplicate key id=%s", collection, id)
		}
		batch[id] = true
		prepared = append(prepared, r)
	}

	inserted := make([]store.Row, 0, len(prepared))
	for _, r := range prepared {
		id := r.String("id")
		t.rows[id] = r
		t.order = append(t.order, id)
		inserted = append(inserted, copyRow(r))
	}
	return inserted, nil
}

func (db *DB) Update(_ context.Context, collection, id string, changes store.Row) (store.Row, error) {
	db.Lock()
	t, err := db.tableFor(collection)
	if err == nil {
		err = db.fail("update", collection)
	}
	if err != nil {
		db.Unlock()
		return nil, err
	}
	updated := db.update(t, id, changes)
	db.Unlock()

	if updated == nil {
		return nil, nil
	}
	db.publish([]store.Change{{Collection: collection, Op: store.OpUpdate}})
	return updated, nil
}

// update applies changes to the row id of t, returning nil when it does not exist. The caller holds the lock.
func (db *DB) update(t *table, id string, changes store.Row) store.Row {
	r, ok := t.rows[id]
	if !ok {
		return nil
	}
	for k, v := range changes {
		if k == "id" {
			continue
		}
		r[k] = v
	}
	return copyRow(r)
}

func (db *DB) Delete(_ context.Context, collection, id string) error {
	db.Lock()
	if _, err := db.tableFor(collection); err != nil {
		db.Unlock()
		return err
	}
	if err := db.fail("delete", collection); err != nil {
		db.Unlock()
		return err
	}
	changes := db.delete(collection, id)
	db.Unlock()

	db.publish(changes)
	return nil
}

// delete removes a row and its cascades. The caller holds the lock.
func (db *DB) delete(collection, id string) []store.Change {
	t, ok := db.tables[collection]
	if !ok {
		return nil
	}
	if _, ok = t.rows[id]; !ok {
		return nil
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}

	changes := []store.Change{{Collection: collection, Op: store.OpDelete}}
	for _, c := range db.cascades[collection] {
		child, ok := db.tables[c.Collection]
		if !ok {
			continue
		}
		var ids []string
		for _, cid := range child.order {
			if child.rows[cid].String(c.Field) == id {
				ids = append(ids, cid)
			}
		}
		for _, cid := range ids {
			changes = append(changes, db.delete(c.Collection, cid)...)
		}
	}
	return changes
}

// Upsert matches and writes under the same lock, so concurrent upserts of one key leave a single row.
func (db *DB) Upsert(_ context.Context, collection string, conflictKey []string, row store.Row) (store.Row, error) {
	db.Lock()
	t, err := db.tableFor(collection)
	if err == nil {
		err = db.fail("upsert", collection)
	}
	if err != nil {
		db.Unlock()
		return nil, err
	}

	var existingID string
	for _, id := range t.order {
		r := t.rows[id]
		match := true
		for _, k := range conflictKey {
			if !equal(r[k], row[k]) {
				match = false
				break
			}
		}
		if match {
			existingID = id
			break
		}
	}

	var (
		stored store.Row
		op     string
	)
	if existingID != "" {
		stored, op = db.update(t, existingID, row), store.OpUpdate
	} else {
		var inserted []store.Row
		if inserted, err = db.insert(t, collection, []store.Row{row}); err == nil {
			stored, op = inserted[0], store.OpInsert
		}
	}
	db.Unlock()
	if err != nil {
		return nil, err
	}

	db.publish([]store.Change{{Collection: collection, Op: op}})
	return stored, nil
}

func matches(r store.Row, f store.Filter) bool {
	for _, c := range f.Where {
		if !equal(r[c.Field], c.Value) {
			return false
		}
	}
	if len(f.AnyOf) == 0 {
		return true
	}
	for _, c := range f.AnyOf {
		if equal(r[c.Field], c.Value) {
			return true
		}
	}
	return false
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return normalize(a) == normalize(b)
}

func normalize(v interface{}) string {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		return string(val)
	}
	return fmt.Sprint(v)
}

// compare orders nil first, then by the natural order of the value type.
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int:
		if bv, ok := b.(int); ok {
			return av - bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(normalize(a), normalize(b))
}

func copyRow(r store.Row) store.Row {
	c := make(store.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
