package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/store"
	"github.com/trezcool/academia/tests"
)

func TestService_Mark(t *testing.T) {
	db, _ := testutil.NewStore()
	svc := NewService(db, testutil.NewValidator())
	ctx := context.Background()

	marked, err := svc.Mark(ctx,
		NewRecord{StudentID: "st1", GradeID: "g1", SubdivisionID: "sA", Date: "2024-06-03", Status: StatusPresent, MarkedBy: "t1"},
		NewRecord{StudentID: "st2", GradeID: "g1", SubdivisionID: "sA", Date: "2024-06-03", Status: StatusAbsent, MarkedBy: "t1"},
		NewRecord{StudentID: "st1", GradeID: "g1", SubdivisionID: "sA", Date: "2024-06-04", Status: StatusLate, MarkedBy: "t1"},
	)
	require.NoError(t, err)
	require.Len(t, marked, 3)

	// marking again the same day replaces the status
	remarked, err := svc.Mark(ctx, NewRecord{StudentID: "st2", GradeID: "g1", SubdivisionID: "sA", Date: "2024-06-03", Status: StatusLate, MarkedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, marked[1].ID, remarked[0].ID)
	assert.Equal(t, StatusLate, remarked[0].Status)
	assert.Equal(t, "admin", remarked[0].MarkedBy)

	rows, err := db.Select(ctx, store.Attendance, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// nothing is written when a record is invalid
	_, err = svc.Mark(ctx,
		NewRecord{StudentID: "st3", GradeID: "g1", Date: "2024-06-03", Status: StatusPresent},
		NewRecord{StudentID: "st4", GradeID: "g1", Date: "2024-06-03", Status: "Sick"},
	)
	assert.Error(t, err)
	rows, err = db.Select(ctx, store.Attendance, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	day, err := svc.ListForDivision(ctx, "sA", "2024-06-03")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	history, err := svc.ListForStudent(ctx, "st1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-06-04", history[0].Date)

	sum, err := svc.Summary(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, Summary{Present: 1, Late: 1, Total: 2}, sum)
}

func TestService_MarkConcurrently(t *testing.T) {
	db, _ := testutil.NewStore()
	svc := NewService(db, testutil.NewValidator())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Mark(ctx, NewRecord{
				StudentID: "st1", GradeID: "g1", Date: fmt.Sprintf("2024-02-%02d", i%28+1), Status: StatusPresent, MarkedBy: "t1",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := svc.ListForStudent(ctx, "st1")
	require.NoError(t, err)
	assert.Len(t, history, 28, "one record per student and day")
}

func TestService_MarkDefaultsToToday(t *testing.T) {
	db, _ := testutil.NewStore()
	svc := NewService(db, testutil.NewValidator())

	marked, err := svc.Mark(context.Background(), NewRecord{StudentID: "st1", GradeID: "g1", Status: StatusPresent})
	require.NoError(t, err)
	assert.NotEmpty(t, marked[0].Date)
	assert.False(t, marked[0].SubdivisionID.Valid)
}
