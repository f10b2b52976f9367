package inmemdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

func TestDB_SelectFilters(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)

	_, err := db.Insert(ctx, store.Teachers,
		store.Row{"custom_id": "RAV987", "name": "Ravi", "status": "Active", "created_at": 3.0},
		store.Row{"custom_id": "MEE912", "name": "Meera", "status": "Suspended", "created_at": 1.0},
		store.Row{"custom_id": "ARJ700", "name": "RAV987", "status": "Active", "created_at": 2.0},
	)
	require.NoError(t, err)

	tests := []struct {
		name      string
		filter    store.Filter
		wantNames []string
	}{
		{name: "all", wantNames: []string{"Ravi", "Meera", "RAV987"}},
		{name: "where", filter: store.Where(store.Eq("status", "Active")), wantNames: []string{"Ravi", "RAV987"}},
		{name: "where (none)", filter: store.Where(store.Eq("status", "lol")), wantNames: []string{}},
		{
			name:      "any of",
			filter:    store.Filter{AnyOf: []store.Cond{store.Eq("custom_id", "RAV987"), store.Eq("name", "RAV987")}},
			wantNames: []string{"Ravi", "RAV987"},
		},
		{
			name: "where + any of",
			filter: store.Filter{
				Where: []store.Cond{store.Eq("status", "Suspended")},
				AnyOf: []store.Cond{store.Eq("custom_id", "RAV987"), store.Eq("name", "Meera")},
			},
			wantNames: []string{"Meera"},
		},
		{name: "ordered asc", filter: store.Filter{OrderBy: []core.DBOrdering{core.Asc("created_at")}}, wantNames: []string{"Meera", "RAV987", "Ravi"}},
		{name: "ordered desc + limit", filter: store.Filter{OrderBy: []core.DBOrdering{core.Desc("created_at")}, Limit: 2}, wantNames: []string{"Ravi", "RAV987"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := db.Select(ctx, store.Teachers, tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(rows))
			for _, r := range rows {
				names = append(names, r.String("name"))
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestDB_UnknownCollection(t *testing.T) {
	db := Open(nil)
	_, err := db.Select(context.Background(), "users", store.Filter{})
	assert.Error(t, err)
	_, err = db.Insert(context.Background(), "users", store.Row{})
	assert.Error(t, err)
}

func TestDB_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)

	row, err := store.InsertOne(ctx, db, store.Notices, store.Row{"title": "Holiday"})
	require.NoError(t, err)
	id := row.String("id")
	assert.NotEmpty(t, id)

	updated, err := db.Update(ctx, store.Notices, id, store.Row{"title": "Exam week", "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, "Exam week", updated.String("title"))
	assert.Equal(t, id, updated.String("id"))

	missing, err := db.Update(ctx, store.Notices, "nope", store.Row{"title": "x"})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.Delete(ctx, store.Notices, id))
	require.NoError(t, db.Delete(ctx, store.Notices, id), "deleting twice is not an error")
	_, found, err := store.SelectByID(ctx, db, store.Notices, id)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestDB_Upsert(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)
	key := []string{"student_id", "date"}

	first, err := db.Upsert(ctx, store.Attendance, key, store.Row{"student_id": "s1", "date": "2024-01-02", "status": "Absent"})
	require.NoError(t, err)
	second, err := db.Upsert(ctx, store.Attendance, key, store.Row{"student_id": "s1", "date": "2024-01-02", "status": "Present"})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, store.Attendance, key, store.Row{"student_id": "s1", "date": "2024-01-03", "status": "Late"})
	require.NoError(t, err)

	assert.Equal(t, first.String("id"), second.String("id"))
	rows, err := db.Select(ctx, store.Attendance, store.Where(store.Eq("student_id", "s1")))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Present", rows[0].String("status"))
}

func TestDB_UpsertConcurrent(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)
	key := []string{"student_id", "date"}
	const days = 28

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			date := fmt.Sprintf("2024-02-%02d", i%days+1)
			_, err := db.Upsert(ctx, store.Attendance, key, store.Row{"student_id": "s1", "date": date, "status": "Present"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := db.Select(ctx, store.Attendance, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, days)
	seen := make(map[string]bool, days)
	for _, r := range rows {
		assert.False(t, seen[r.String("date")], "duplicate row for %s", r.String("date"))
		seen[r.String("date")] = true
	}
}

func TestDB_InsertBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)

	_, err := db.Insert(ctx, store.Notices, store.Row{"id": "n1", "title": "Holiday"})
	require.NoError(t, err)

	_, err = db.Insert(ctx, store.Notices,
		store.Row{"id": "n2", "title": "Exam week"},
		store.Row{"id": "n1", "title": "Duplicate"},
	)
	assert.Error(t, err)
	_, err = db.Insert(ctx, store.Notices,
		store.Row{"id": "n3", "title": "Sports day"},
		store.Row{"id": "n3", "title": "Sports day again"},
	)
	assert.Error(t, err)

	rows, err := db.Select(ctx, store.Notices, store.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Holiday", rows[0].String("title"))
}

func TestDB_CascadeAndPublish(t *testing.T) {
	ctx := context.Background()
	hub := store.NewHub(nil)
	db := Open(hub)

	var changes []store.Change
	hub.Subscribe(store.Grades, func(ch store.Change) { changes = append(changes, ch) })
	hub.Subscribe(store.Subdivisions, func(ch store.Change) { changes = append(changes, ch) })

	grade, err := store.InsertOne(ctx, db, store.Grades, store.Row{"grade_name": "7th"})
	require.NoError(t, err)
	gid := grade.String("id")
	_, err = db.Insert(ctx, store.Subdivisions, store.Row{"grade_id": gid, "division_name": "A"}, store.Row{"grade_id": gid, "division_name": "B"})
	require.NoError(t, err)
	_, err = db.Insert(ctx, store.Subdivisions, store.Row{"grade_id": "other", "division_name": "C"})
	require.NoError(t, err)

	require.NoError(t, db.Delete(ctx, store.Grades, gid))

	rows, err := db.Select(ctx, store.Subdivisions, store.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C", rows[0].String("division_name"))

	assert.Equal(t, []store.Change{
		{Collection: store.Grades, Op: store.OpInsert},
		{Collection: store.Subdivisions, Op: store.OpInsert},
		{Collection: store.Subdivisions, Op: store.OpInsert},
		{Collection: store.Grades, Op: store.OpDelete},
		{Collection: store.Subdivisions, Op: store.OpDelete},
		{Collection: store.Subdivisions, Op: store.OpDelete},
	}, changes)
}

func TestDB_FailOn(t *testing.T) {
	ctx := context.Background()
	db := Open(nil)
	boom := errors.New("connection reset")

	db.FailOn("insert", store.Orders, boom)
	_, err := db.Insert(ctx, store.Orders, store.Row{})
	assert.Error(t, err)

	db.FailOn("insert", store.Orders, nil)
	_, err = db.Insert(ctx, store.Orders, store.Row{})
	assert.NoError(t, err)
}
