package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/grade"
	"github.com/trezcool/academia/core/student"
	"github.com/trezcool/academia/core/teacher"
)

type loginFixture struct {
	grd     grade.Grade
	std     student.Student
	tch     teacher.Teacher
	stdAuth auth.Identity
	tchAuth auth.Identity
}

func loginSetup(t *testing.T, app testApp) loginFixture {
	t.Helper()
	ctx := context.Background()

	grd, err := app.acad.Grades.CreateGrade(ctx, grade.NewGrade{GradeName: "Grade 7", Divisions: []string{"A", "B"}})
	require.NoError(t, err)
	subA := grd.Subdivisions[0]

	std, err := app.acad.Students.Create(ctx, student.NewStudent{
		Name: "Aarav Shah", Mobile: "9876543210", GradeID: grd.ID, SubdivisionID: subA.ID, MonthlyFees: 2500,
	})
	require.NoError(t, err)
	tch, err := app.acad.Teachers.Create(ctx, teacher.NewTeacher{
		Name: "Kavya Rao", Mobile: "9123456789", Specialization: "Maths", GradeID: grd.ID, SubdivisionID: subA.ID,
	})
	require.NoError(t, err)

	return loginFixture{
		grd: grd,
		std: std,
		tch: tch,
		stdAuth: auth.Identity{
			ID: std.ID, Name: std.Name, Role: auth.RoleStudent, GradeID: grd.ID, SubdivisionID: subA.ID,
		},
		tchAuth: auth.Identity{
			ID: tch.ID, Name: tch.Name, Role: auth.RoleTeacher, GradeID: grd.ID, SubdivisionID: subA.ID,
		},
	}
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)

	failed := marshallObj(t, httpErr{Error: "authentication failed"})
	body := func(username, password string) []byte {
		return marshallObj(t, loginRequest{Username: username, Password: password})
	}

	tests := []struct {
		name     string
		body     []byte
		wantCode int
		wantID   *auth.Identity
	}{
		{name: "Empty", body: body("", ""), wantCode: http.StatusBadRequest},
		{name: "Unknown", body: body("nobody", "secret"), wantCode: http.StatusBadRequest},
		{name: "Wrong password", body: body("admin", "admin"), wantCode: http.StatusBadRequest},
		{name: "Padded username", body: body(" admin ", "admin@123"), wantCode: http.StatusBadRequest},
		{
			name: "Admin", body: body("admin", "admin@123"), wantCode: http.StatusOK,
			wantID: &auth.Identity{ID: auth.AdminID, Name: "admin", Role: auth.RoleAdmin},
		},
		{name: "Teacher by custom id", body: body(f.tch.CustomID, "9123456789"), wantCode: http.StatusOK, wantID: &f.tchAuth},
		{name: "Student by name", body: body("Aarav Shah", "9876543210"), wantCode: http.StatusOK, wantID: &f.stdAuth},
		{name: "Student by custom id", body: body("AAR987", "9876543210"), wantCode: http.StatusOK, wantID: &f.stdAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantID == nil {
				ok, err := jsonBytesEqual(rec.Body.Bytes(), failed)
				require.NoError(t, err)
				assert.True(t, ok, rec.Body.String())
				return
			}

			var resp tokenResponse
			unmarshall(t, rec, &resp)
			assert.Equal(t, *tt.wantID, resp.Identity)
			assert.NotEmpty(t, resp.Token)

			me := app.do(http.MethodGet, "/v1/auth/me", resp.Token)
			assert.Equal(t, http.StatusOK, me.Code)
			var id auth.Identity
			unmarshall(t, me, &id)
			assert.Equal(t, *tt.wantID, id)
		})
	}

	t.Run("Suspended student", func(t *testing.T) {
		_, _, err := app.acad.Students.SetStatus(context.Background(), f.std.ID, account.StatusSuspended)
		require.NoError(t, err)
		rec := app.do(http.MethodPost, "/v1/auth/login", "", body("Aarav Shah", "9876543210"))
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: failed}, rec)
	})
}

func Test_authApi_session(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)

	app.run(t, []httpTest{
		{name: "Auth required", path: "/v1/auth/me", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "Bad token", path: "/v1/auth/me", token: "not-a-token", wantCode: http.StatusUnauthorized},
		{name: "Admin profile", path: "/v1/auth/profile", token: app.adminToken(t), wantCode: http.StatusOK,
			wantData: marshallObj(t, auth.Identity{ID: auth.AdminID, Name: "Administrator", Role: auth.RoleAdmin})},
		{name: "Student profile", path: "/v1/auth/profile", token: app.token(t, f.stdAuth), wantCode: http.StatusOK,
			wantData: marshallObj(t, f.std)},
		{name: "Deleted teacher profile", path: "/v1/auth/profile", wantCode: http.StatusNotFound,
			token: app.token(t, auth.Identity{ID: "gone", Name: "Gone", Role: auth.RoleTeacher})},
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	ctx := context.Background()

	rec := app.do(http.MethodPost, "/v1/auth/token-refresh", app.token(t, f.stdAuth))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp tokenResponse
	unmarshall(t, rec, &resp)
	assert.Equal(t, f.stdAuth, resp.Identity)

	// the refreshed identity follows the student to their new class
	subB := f.grd.Subdivisions[1]
	_, _, err := app.acad.Students.Update(ctx, f.std.ID, student.UpdateStudent{SubdivisionID: &subB.ID})
	require.NoError(t, err)
	rec = app.do(http.MethodPost, "/v1/auth/token-refresh", resp.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &resp)
	assert.Equal(t, subB.ID, resp.Identity.SubdivisionID)

	_, _, err = app.acad.Students.SetStatus(ctx, f.std.ID, account.StatusSuspended)
	require.NoError(t, err)
	rec = app.do(http.MethodPost, "/v1/auth/token-refresh", resp.Token)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"})}, rec)

	t.Run("Refresh expired", func(t *testing.T) {
		origNow := core.NowFunc
		t.Cleanup(func() { core.NowFunc = origNow })

		token := app.adminToken(t)
		core.NowFunc = func() time.Time { return origNow().Add(5 * time.Hour) }
		// the token itself is still valid for jwt-go, which uses the real clock
		rec := app.do(http.MethodPost, "/v1/auth/token-refresh", token)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "refresh has expired"})}, rec)
	})
}

func Test_authApi_changePassword(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	token := app.token(t, f.tchAuth)

	app.run(t, []httpTest{
		{name: "Admin cannot", method: http.MethodPut, path: "/v1/auth/password", token: app.adminToken(t),
			body: marshallObj(t, account.PasswordChange{OldPassword: "admin@123", NewPassword: "N3w-Secret!"}), wantCode: http.StatusForbidden},
		{name: "Wrong old password", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body:     marshallObj(t, account.PasswordChange{OldPassword: "nope", NewPassword: "N3w-Secret!"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"oldPassword": "wrong password"})},
		{name: "Changed", method: http.MethodPut, path: "/v1/auth/password", token: token,
			body: marshallObj(t, account.PasswordChange{OldPassword: "9123456789", NewPassword: "N3w-Secret!"}), wantCode: http.StatusNoContent},
	})

	rec := app.do(http.MethodPost, "/v1/auth/login", "", marshallObj(t, loginRequest{Username: "Kavya Rao", Password: "N3w-Secret!"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
