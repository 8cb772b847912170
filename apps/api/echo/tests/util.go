package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/kelna-terese/EvalX/apps/api/echo"
	"github.com/kelna-terese/EvalX/core/report"
	"github.com/kelna-terese/EvalX/core/user"
	"github.com/kelna-terese/EvalX/services/export"
	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
	testutil "github.com/kelna-terese/EvalX/tests"
)

const testPassword = "Tr0ub4dor&3x"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// setup wires a Server on a fresh in-memory environment.
func setup(t *testing.T) (*echoapi.Server, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv(t)
	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          env.Conf,
		Logger:        env.Logger,
		Metrics:       metricsvc.New(),
		Validate:      env.Validate,
		Translator:    env.Translator,
		UserSvc:       env.UserSvc,
		TeamSvc:       env.TeamSvc,
		EvalSvc:       env.EvalSvc,
		SubmissionSvc: env.SubmissionSvc,
		ReportSvc:     env.ReportSvc,
		Renderers: map[string]report.Renderer{
			"csv":  export.CSV{},
			"xlsx": export.XLSX{},
		},
	})
	return srv, env
}

// staff creates one active user per staff role.
func staff(t *testing.T, env *testutil.Env) (coordinator, hod, guide user.User) {
	t.Helper()
	coordinator = testutil.CreateUser(t, env.Users, "Dr. Coordinator", "coordinator@evalx.test", testPassword, user.RoleCoordinator, true)
	hod = testutil.CreateUser(t, env.Users, "Dr. HOD", "hod@evalx.test", testPassword, user.RoleHOD, true)
	guide = testutil.CreateUser(t, env.Users, "Dr. Guide", "guide@evalx.test", testPassword, user.RoleGuide, true)
	return coordinator, hod, guide
}

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
	extra    interface{}
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

func getToken(t *testing.T, env *testutil.Env, usr user.User) string {
	claims := echoapi.GetUserClaims(env.Conf, usr)
	token, err := echoapi.GenerateToken(env.Conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
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

func runTests(t *testing.T, srv http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
