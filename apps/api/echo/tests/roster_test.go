package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/eduai/backend/apps/api/echo"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/student"
)

func Test_rosterApi_completedRowGetsAccount(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	var added RosterRowResponse
	rec := app.do(t, http.MethodPost, "/v1/students", token, student.NewStudent{ClassID: class.ID}, &added)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, added.Account)
	assert.False(t, added.Student.HasAccount())
	rowPath := "/v1/students/" + added.Student.ID

	for _, edit := range []student.FieldUpdate{
		{Field: "first_name", Value: "Marie"},
		{Field: "last_name", Value: "Curi"},
		{Field: "email", Value: "marie.curie@example.com"},
		{Field: "last_name", Value: "Curie"}, // last edit wins
	} {
		var res EditResponse
		rec = app.do(t, http.MethodPatch, rowPath, token, edit, &res)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
		assert.True(t, res.Pending)
	}

	// nothing saved yet
	var row student.Student
	rec = app.do(t, http.MethodGet, rowPath, token, nil, &row)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, row.FirstName)
	assert.Empty(t, app.mailSvc.SentMessages())

	app.editor.Flush()

	rec = app.do(t, http.MethodGet, rowPath, token, nil, &row)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Marie", row.FirstName)
	assert.Equal(t, "Curie", row.LastName)
	assert.True(t, row.HasAccount())

	sent := app.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "marie.curie@example.com", sent[0].To[0].Address)

	// later edits of the row do not provision it again
	rec = app.do(t, http.MethodPatch, rowPath, token, student.FieldUpdate{Field: "phone", Value: "+243810000001"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	app.editor.Flush()
	assert.Len(t, app.mailSvc.SentMessages(), 1)
}

func Test_rosterApi_addCompleteRow(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	var added RosterRowResponse
	rec := app.do(t, http.MethodPost, "/v1/students", token, student.NewStudent{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		ClassID:   class.ID,
	}, &added)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, added.Account)
	assert.NotEmpty(t, added.Account.DefaultPassword)
	assert.Len(t, app.mailSvc.SentMessages(), 1)
}

func Test_rosterApi_credentials(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	var added RosterRowResponse
	rec := app.do(t, http.MethodPost, "/v1/students", token, student.NewStudent{ClassID: class.ID}, &added)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rowPath := "/v1/students/" + added.Student.ID

	noCreds := marshalObj(t, httpErr{Error: "no credentials were created for this student in this session"})
	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: rowPath + "/credentials", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "no account yet", path: rowPath + "/credentials", token: token, wantCode: http.StatusNotFound, wantData: noCreds},
		{
			name: "unknown row", path: "/v1/students/lol/credentials", token: token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
	})

	for _, edit := range []student.FieldUpdate{
		{Field: "first_name", Value: "Marie"},
		{Field: "last_name", Value: "Curie"},
		{Field: "email", Value: "marie.curie@example.com"},
	} {
		rec = app.do(t, http.MethodPatch, rowPath, token, edit, nil)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	}
	app.editor.Flush()

	var creds account.ProvisionResult
	rec = app.do(t, http.MethodGet, rowPath+"/credentials", token, nil, &creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "marie.curie@example.com", creds.Email)
	assert.Equal(t, added.Student.ID, creds.RecordID)
	require.NotEmpty(t, creds.DefaultPassword)
	app.signIn(t, creds.Email, creds.DefaultPassword, "student")

	// a new session of the same admin does not see them
	otherToken := app.signIn(t, adminEmail, adminPassword, "school")
	runHTTPTests(t, app, []httpTest{
		{name: "other session", path: rowPath + "/credentials", token: otherToken, wantCode: http.StatusNotFound, wantData: noCreds},
	})
}

func Test_rosterApi_errors(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	var added RosterRowResponse
	rec := app.do(t, http.MethodPost, "/v1/students", token, student.NewStudent{ClassID: class.ID}, &added)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rowPath := "/v1/students/" + added.Student.ID

	runHTTPTests(t, app, []httpTest{
		{
			name: "class required", method: http.MethodPost, path: "/v1/students", token: token,
			body:     marshalObj(t, student.NewStudent{FirstName: "Ada"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"class_id": "this field is required"}),
		},
		{
			name: "unknown field", method: http.MethodPatch, path: rowPath, token: token,
			body:     marshalObj(t, student.FieldUpdate{Field: "user_id", Value: "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"field": "unknown field"}),
		},
		{
			name: "invalid email", method: http.MethodPatch, path: rowPath, token: token,
			body:     marshalObj(t, student.FieldUpdate{Field: "email", Value: "marie"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": "invalid value"}),
		},
		{
			name: "unknown row", method: http.MethodPatch, path: "/v1/students/lol", token: token,
			body:     marshalObj(t, student.FieldUpdate{Field: "first_name", Value: "Marie"}),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
	})
}

func Test_rosterApi_deleteDropsPendingEdits(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	var added RosterRowResponse
	rec := app.do(t, http.MethodPost, "/v1/students", token, student.NewStudent{
		FirstName: "Marie",
		LastName:  "Curie",
		ClassID:   class.ID,
	}, &added)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rowPath := "/v1/students/" + added.Student.ID

	rec = app.do(t, http.MethodPatch, rowPath, token, student.FieldUpdate{Field: "email", Value: "marie.curie@example.com"}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	runHTTPTests(t, app, []httpTest{
		{name: "delete", method: http.MethodDelete, path: rowPath, token: token, wantCode: http.StatusNoContent},
		{name: "deleted", path: rowPath, token: token, wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "student not found"})},
		{
			name: "delete again", method: http.MethodDelete, path: rowPath, token: token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "student not found"}),
		},
	})

	app.editor.Flush()
	assert.False(t, app.editor.Pending(added.Student.ID))
	assert.Empty(t, app.mailSvc.SentMessages())
}

func Test_rosterApi_query(t *testing.T) {
	app := setup(t)
	token := app.registerSchool(t, adminEmail)
	class := app.createClass(t, token, "6e A")

	for _, ns := range []student.NewStudent{
		{FirstName: "Marie", LastName: "Curie", ClassID: class.ID},
		{FirstName: "Ada", LastName: "Lovelace", ClassID: class.ID},
		{FirstName: "Alan", LastName: "Turing", ClassID: class.ID},
	} {
		rec := app.do(t, http.MethodPost, "/v1/students", token, ns, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	lastNames := func(path string) []string {
		var rows []student.Student
		rec := app.do(t, http.MethodGet, path, token, nil, &rows)
		require.Equal(t, http.StatusOK, rec.Code)
		names := make([]string, 0, len(rows))
		for _, r := range rows {
			names = append(names, r.LastName)
		}
		return names
	}
	assert.Equal(t, []string{"Curie", "Lovelace", "Turing"}, lastNames("/v1/students"))
	assert.Equal(t, []string{"Turing", "Lovelace", "Curie"}, lastNames("/v1/students?ordering=-last_name"))
	assert.Equal(t, []string{"Lovelace", "Turing", "Curie"}, lastNames("/v1/students?ordering=first_name"))
	assert.Equal(t, []string{"Curie", "Lovelace", "Turing"}, lastNames("/v1/students?ordering=password"))

	otherToken := app.registerSchool(t, "admin@college-hugo.fr")
	runHTTPTests(t, app, []httpTest{
		{name: "other school", path: "/v1/students", token: otherToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})
}
