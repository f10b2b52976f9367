package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/fee"
	"github.com/trezcool/academia/core/student"
)

func Test_feeApi(t *testing.T) {
	app := setup(t)
	f := loginSetup(t, app)
	adminToken := app.adminToken(t)
	stdToken := app.token(t, f.stdAuth)

	rec := app.do(http.MethodPost, "/v1/fees", stdToken, marshallObj(t, fee.NewSubmission{Amount: 2500, TransactionRef: "UPI-100"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub fee.Submission
	unmarshall(t, rec, &sub)
	assert.Equal(t, f.std.ID, sub.StudentID.String)
	assert.Equal(t, f.std.Name, sub.StudentName)

	guest, err := app.acad.Fees.Submit(app.ctx(), fee.NewSubmission{StudentName: "Guest", Amount: 100, TransactionRef: "UPI-101"})
	require.NoError(t, err)

	var subs []fee.Submission
	rec = app.do(http.MethodGet, "/v1/fees", stdToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &subs)
	require.Len(t, subs, 1, "students only see their own submissions")
	assert.Equal(t, sub.ID, subs[0].ID)

	rec = app.do(http.MethodGet, "/v1/fees?status=Pending", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	unmarshall(t, rec, &subs)
	assert.Len(t, subs, 2)

	app.run(t, []httpTest{
		{name: "Teachers cannot list", path: "/v1/fees", token: app.token(t, f.tchAuth), wantCode: http.StatusForbidden},
		{name: "Admins do not submit", method: http.MethodPost, path: "/v1/fees", token: adminToken, wantCode: http.StatusForbidden},
		{name: "Students cannot approve", method: http.MethodPost, path: "/v1/fees/" + sub.ID + "/approve", token: stdToken, wantCode: http.StatusForbidden},
		{name: "Unknown", method: http.MethodPost, path: "/v1/fees/unknown/approve", token: adminToken, wantCode: http.StatusNotFound},
		{name: "Reject guest", method: http.MethodPost, path: "/v1/fees/" + guest.ID + "/reject", token: adminToken, wantCode: http.StatusOK},
		{name: "Reviewed once", method: http.MethodPost, path: "/v1/fees/" + guest.ID + "/approve", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"status": fee.ErrAlreadyReviewed.Error()})},
	})

	rec = app.do(http.MethodPost, "/v1/fees/"+sub.ID+"/approve", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshall(t, rec, &sub)
	assert.Equal(t, fee.StatusApproved, sub.Status)

	std, _, err := app.acad.Students.Get(app.ctx(), f.std.ID)
	require.NoError(t, err)
	assert.Equal(t, student.FeesPaid, std.FeesStatus)
}
