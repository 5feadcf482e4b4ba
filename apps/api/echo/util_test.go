package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/learnpulse/backend/core"
	"github.com/learnpulse/backend/core/risk"
	"github.com/learnpulse/backend/core/student"
	"github.com/learnpulse/backend/core/user"
	dummydb "github.com/learnpulse/backend/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	server     *Server
	userSvc    *user.Service
	studentSvc *student.Service
	alerter    *stubAlerter
}

func setup(t *testing.T, clf risk.Classifier) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:          true,
		AppName:           "LearnPulse",
		SecretKey:         "secret-test-key",
		FrontendBaseURL:   "http://localhost:5173",
		HighRiskThreshold: 70,
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrSvc := user.NewService(dummydb.NewUserRepository(db))
	stdSvc := student.NewService(dummydb.NewStudentRepository(db))

	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	scorer := risk.NewScorer(clf)
	alerter := new(stubAlerter)
	updater := risk.NewBulkUpdater(scorer, stdSvc, alerter, conf.HighRiskThreshold, testLogger{t})

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testLogger{t},
		UserSvc:    usrSvc,
		StudentSvc: stdSvc,
		Scorer:     scorer,
		Updater:    updater,
		Validate:   validate,
		Translator: translator,
	})
	return &testEnv{server: srv, userSvc: usrSvc, studentSvc: stdSvc, alerter: alerter}
}

// stubClassifier always predicts the same distribution.
type stubClassifier struct {
	probs [risk.NumClasses]float64
	err   error
}

func (c stubClassifier) Predict(risk.FeatureVector) (int, [risk.NumClasses]float64, error) {
	if c.err != nil {
		return 0, [risk.NumClasses]float64{}, c.err
	}
	class, best := 0, c.probs[0]
	for i, p := range c.probs {
		if p > best {
			class, best = i, p
		}
	}
	return class, c.probs, nil
}

type stubAlerter struct {
	calls     int
	delivered bool
}

func (a *stubAlerter) SendAlert(string, string, string, float64, risk.Level) bool {
	a.calls++
	return a.delivered
}

type testLogger struct{ t *testing.T }

func (l testLogger) Debug(msg string, args ...interface{}) { l.t.Logf("DEBUG: %s %v", msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.t.Logf("INFO: %s %v", msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.t.Logf("WARN: %s %v", msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.t.Logf("ERROR: %s %v", msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.t.Fatalf("FATAL: %s %v", msg, args) }

// Fixtures

func createUser(t *testing.T, svc *user.Service, name, uname, email string, roles []string, studentID string) user.User {
	t.Helper()
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:      name,
		Username:  uname,
		Email:     email,
		Password:  "Str0ngPa$$w0rd",
		Roles:     roles,
		StudentID: studentID,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createStudent(t *testing.T, svc *student.Service, name, roll, dept string, gpa *float64, attendance *int) student.Student {
	t.Helper()
	std, err := svc.Create(context.Background(), student.NewStudent{
		Name:       name,
		Roll:       roll,
		Dept:       dept,
		GPA:        gpa,
		Attendance: attendance,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func createMark(t *testing.T, svc *student.Service, studentID, subject string, marks float64) student.Mark {
	t.Helper()
	mark, err := svc.AddMark(context.Background(), student.NewMark{
		StudentID: studentID,
		Subject:   subject,
		Marks:     marks,
	})
	if err != nil {
		t.Fatalf("createMark() failed: %v", err)
	}
	return mark
}

// HTTP helpers

type httpErr struct {
	Error string `json:"error"`
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
