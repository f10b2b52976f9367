package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/student"
	"github.com/trezcool/academia/core/teacher"
)

func Test_studentApi_create(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	adminToken := app.adminToken(t)

	app.run(t, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/students", wantCode: http.StatusUnauthorized},
		{name: "Admin required", method: http.MethodPost, path: "/v1/students", token: app.token(t, f.tchAuth),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})},
		{name: "Invalid", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body:     marshallObj(t, student.NewStudent{Mobile: "12", GradeID: f.grd.ID}),
			wantCode: http.StatusBadRequest},
		{name: "Malformed", method: http.MethodPost, path: "/v1/students", token: adminToken,
			body: []byte(`{"name": 12`), wantCode: http.StatusBadRequest},
	})

	rec := app.do(http.MethodPost, "/v1/students", adminToken, marshallObj(t, student.NewStudent{
		Name: " Diya Patel ", Mobile: "9000000001", GradeID: f.grd.ID, MonthlyFees: 3000,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var std student.Student
	unmarshall(t, rec, &std)
	assert.Equal(t, "Diya Patel", std.Name)
	assert.Equal(t, "DIY900", std.CustomID)
	assert.Equal(t, student.FeesPending, std.FeesStatus)
	assert.Equal(t, account.StatusActive, std.Status)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.do(http.MethodPost, "/v1/students", adminToken, marshallObj(t, student.NewStudent{GradeID: f.grd.ID}))
	var fldErrs map[string]string
	unmarshall(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "name")
	assert.Contains(t, fldErrs, "mobile")
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	ctx := context.Background()

	other, err := app.acad.Students.Create(ctx, student.NewStudent{
		Name: "Zoya Khan", Mobile: "9000000002", GradeID: f.grd.ID, SubdivisionID: f.grd.Subdivisions[1].ID, MonthlyFees: 1000,
	})
	require.NoError(t, err)
	list := func(t *testing.T, path, token string) []student.Student {
		rec := app.do(http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var students []student.Student
		unmarshall(t, rec, &students)
		return students
	}
	ids := func(students []student.Student) []string {
		res := make([]string, 0, len(students))
		for _, s := range students {
			res = append(res, s.ID)
		}
		return res
	}
	adminToken := app.adminToken(t)

	assert.Equal(t, []string{other.ID, f.std.ID}, ids(list(t, "/v1/students", adminToken)))
	assert.Equal(t, []string{f.std.ID, other.ID}, ids(list(t, "/v1/students?ordering=name", adminToken)))
	assert.Equal(t, []string{f.std.ID, other.ID}, ids(list(t, "/v1/students?ordering=-monthlyFees", adminToken)))
	// unknown ordering fields are ignored
	assert.Equal(t, []string{other.ID, f.std.ID}, ids(list(t, "/v1/students?ordering=password", adminToken)))
	assert.Equal(t, []string{other.ID}, ids(list(t, "/v1/students?subdivisionId="+other.SubdivisionID.String, adminToken)))

	// teachers only see their class
	assert.Equal(t, []string{f.std.ID}, ids(list(t, "/v1/students?subdivisionId="+other.SubdivisionID.String, app.token(t, f.tchAuth))))
	classless := app.token(t, auth.Identity{ID: "t2", Name: "New", Role: auth.RoleTeacher})
	assert.Empty(t, list(t, "/v1/students", classless))

	rec := app.do(http.MethodGet, "/v1/students", app.token(t, f.stdAuth))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_studentApi_detail(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	adminToken := app.adminToken(t)
	path := "/v1/students/" + f.std.ID

	app.run(t, []httpTest{
		{name: "Not found", path: "/v1/students/unknown", token: adminToken, wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "not found"})},
		{name: "Retrieve", path: path, token: adminToken, wantCode: http.StatusOK, wantData: marshallObj(t, f.std)},
		{name: "Invalid status", method: http.MethodPut, path: path + "/status", token: adminToken,
			body: marshallObj(t, statusRequest{Status: "Gone"}), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"status": "invalid status"})},
		{name: "Fees status", method: http.MethodPut, path: path + "/fees-status", token: adminToken,
			body: marshallObj(t, statusRequest{Status: student.FeesOverdue}), wantCode: http.StatusOK},
		{name: "Unknown fees status", method: http.MethodPut, path: "/v1/students/unknown/fees-status", token: adminToken,
			body: marshallObj(t, statusRequest{Status: student.FeesPaid}), wantCode: http.StatusNotFound},
	})

	name := "Aarav S."
	rec := app.do(http.MethodPut, path, adminToken, marshallObj(t, student.UpdateStudent{Name: &name}))
	require.Equal(t, http.StatusOK, rec.Code)
	var std student.Student
	unmarshall(t, rec, &std)
	assert.Equal(t, name, std.Name)
	assert.Equal(t, student.FeesOverdue, std.FeesStatus)
	assert.Equal(t, f.std.CustomID, std.CustomID)

	rec = app.do(http.MethodPost, path+"/reset-password", adminToken, marshallObj(t, account.PasswordReset{Password: "Fr3sh-Start!"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := app.do(http.MethodPost, "/v1/auth/login", "", marshallObj(t, loginRequest{Username: std.CustomID, Password: "Fr3sh-Start!"}))
	assert.Equal(t, http.StatusOK, login.Code)

	rec = app.do(http.MethodDelete, path, adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(http.MethodGet, path, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_teacherApi(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	ctx := context.Background()
	adminToken := app.adminToken(t)

	suspended, err := app.acad.Teachers.Create(ctx, teacher.NewTeacher{Name: "Old Timer", Mobile: "9000000009"})
	require.NoError(t, err)
	_, _, err = app.acad.Teachers.SetStatus(ctx, suspended.ID, account.StatusSuspended)
	require.NoError(t, err)

	var teachers []teacher.Teacher
	rec := app.do(http.MethodGet, "/v1/teachers", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &teachers)
	assert.Len(t, teachers, 2)

	// students only see active teachers
	rec = app.do(http.MethodGet, "/v1/teachers", app.token(t, f.stdAuth))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &teachers)
	require.Len(t, teachers, 1)
	assert.Equal(t, f.tch.ID, teachers[0].ID)

	rec = app.do(http.MethodPost, "/v1/teachers", adminToken, marshallObj(t, teacher.NewTeacher{Name: "Meera Iyer", Mobile: "9988776655"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tch teacher.Teacher
	unmarshall(t, rec, &tch)
	assert.Equal(t, "MEE998", tch.CustomID)

	rec = app.do(http.MethodPut, "/v1/teachers/"+tch.ID+"/status", adminToken, marshallObj(t, statusRequest{Status: account.StatusSuspended}))
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &tch)
	assert.Equal(t, account.StatusSuspended, tch.Status)

	rec = app.do(http.MethodDelete, "/v1/teachers/"+tch.ID, app.token(t, f.tchAuth))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
