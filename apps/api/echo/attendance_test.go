package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/attendance"
	"github.com/trezcool/academia/core/auth"
)

func Test_attendanceApi(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	stdToken := app.token(t, f.stdAuth)
	tchToken := app.token(t, f.tchAuth)
	subA := f.grd.Subdivisions[0]

	mark := func(date, status string) []attendance.NewRecord {
		return []attendance.NewRecord{{StudentID: f.std.ID, GradeID: f.grd.ID, SubdivisionID: subA.ID, Date: date, Status: status}}
	}

	app.run(t, []httpTest{
		{name: "Students do not mark", method: http.MethodPost, path: "/v1/attendance", token: stdToken,
			body: marshallObj(t, markRequest{Records: mark("", attendance.StatusPresent)}), wantCode: http.StatusForbidden},
		{name: "Invalid status", method: http.MethodPost, path: "/v1/attendance", token: tchToken,
			body: marshallObj(t, markRequest{Records: mark("", "Sleeping")}), wantCode: http.StatusBadRequest},
		{name: "Other student", path: "/v1/attendance/students/s2", token: stdToken, wantCode: http.StatusForbidden},
	})

	for _, rec := range []struct{ date, status string }{
		{"2020-06-01", attendance.StatusPresent},
		{"2020-06-02", attendance.StatusAbsent},
		{"2020-06-02", attendance.StatusLate}, // replaces the previous mark
		{"", attendance.StatusPresent},
	} {
		resp := app.do(http.MethodPost, "/v1/attendance", tchToken, marshallObj(t, markRequest{Records: mark(rec.date, rec.status)}))
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	var records []attendance.Record
	rec := app.do(http.MethodGet, "/v1/attendance/students/"+f.std.ID, stdToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &records)
	require.Len(t, records, 3)
	assert.Equal(t, core.Today(), records[0].Date)
	assert.Equal(t, f.tch.ID, records[0].MarkedBy)

	rec = app.do(http.MethodGet, "/v1/attendance/students/"+f.std.ID+"/summary", stdToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, attendance.Summary{Present: 2, Late: 1, Total: 3})}, rec)

	rec = app.do(http.MethodGet, "/v1/attendance/divisions/"+subA.ID+"?date=2020-06-02", tchToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &records)
	require.Len(t, records, 1)
	assert.Equal(t, attendance.StatusLate, records[0].Status)

	rec = app.do(http.MethodGet, "/v1/attendance/divisions/"+subA.ID, app.token(t, auth.Identity{ID: "s9", Role: auth.RoleStudent}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
