package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	. "github.com/eduai/backend/apps/api/echo"
	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/account"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/scheduler"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
	emailsvc "github.com/eduai/backend/services/email"
	logsvc "github.com/eduai/backend/services/logger"
	dummydb "github.com/eduai/backend/storage/database/dummy"
)

const (
	adminEmail    = "admin@lycee-voltaire.fr"
	adminPassword = "Adm1n-Passw0rd"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	identity.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testApp struct {
	Server
	conf    *core.Config
	mailSvc *emailsvc.ConsoleServiceMock
	logger  *logsvc.Recorder
	editor  *account.RowEditor
}

func setup(t *testing.T) *testApp {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewRecorder()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	// set up DB & repos
	db := dummydb.Open()
	idRepo := dummydb.NewIdentityRepository(db)

	// set up services
	identitySvc := identity.NewService(idRepo, idRepo, mailSvc, conf)
	studentSvc := student.NewService(dummydb.NewStudentRepository(db))
	teacherSvc := teacher.NewService(dummydb.NewTeacherRepository(db))
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db), teacherSvc)
	accountSvc := account.NewService(account.Deps{
		Identity:  identitySvc,
		Profiles:  dummydb.NewProfileRepository(db),
		Schools:   schoolSvc,
		Students:  studentSvc,
		Teachers:  teacherSvc,
		Passwords: credential.NewGenerator(),
		Deliverer: credential.NewDeliverer(mailSvc),
		Logger:    logger,
	})

	sched := scheduler.New()
	t.Cleanup(sched.Stop)
	watcher := account.NewCompletionWatcher(dummydb.NewDeliveredFlags(time.Hour), accountSvc, logger)
	// rows are saved by Flush in tests
	editor := account.NewRowEditor(studentSvc, watcher, sched, time.Hour, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	identity.InitValidators(validate, translator, logger)
	account.InitValidators(validate, translator)

	// set up server
	return &testApp{
		Server: NewServer(ServerDeps{
			Conf:        conf,
			Logger:      logger,
			AccountSvc:  accountSvc,
			IdentitySvc: identitySvc,
			SchoolSvc:   schoolSvc,
			StudentSvc:  studentSvc,
			TeacherSvc:  teacherSvc,
			RowEditor:   editor,
			Validate:    validate,
			Translator:  translator,
		}),
		conf:    conf,
		mailSvc: mailSvc,
		logger:  logger,
		editor:  editor,
	}
}

type httpErr struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves a request and decodes a JSON response into `out`, when not nil.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		data = marshalObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

// registerSchool registers a school and returns the token of its administrator.
func (app *testApp) registerSchool(t *testing.T, email string) string {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/v1/schools/register", "", map[string]string{
		"email":    email,
		"password": adminPassword,
		"name":     "Lycée Voltaire",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return app.signIn(t, email, adminPassword, "school")
}

func (app *testApp) signIn(t *testing.T, email, pwd, typ string) string {
	t.Helper()
	var res SignInResponse
	rec := app.do(t, http.MethodPost, "/v1/auth/sign-in", "", account.SignIn{Email: email, Password: pwd, Type: typ}, &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (app *testApp) createClass(t *testing.T, token, name string) school.Class {
	t.Helper()
	var c school.Class
	rec := app.do(t, http.MethodPost, "/v1/classes", token, school.ClassForm{Name: name}, &c)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return c
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
