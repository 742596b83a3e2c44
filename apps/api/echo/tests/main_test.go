package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core/attendance"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enroll"
	"github.com/trezcool/elimu/core/fee"
	"github.com/trezcool/elimu/core/interview"
	"github.com/trezcool/elimu/core/material"
	"github.com/trezcool/elimu/core/policy"
	"github.com/trezcool/elimu/core/task"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	dummydb "github.com/trezcool/elimu/storage/database/dummy"
	testutil "github.com/trezcool/elimu/tests"
)

var (
	errMissingToken     = httpErr{Error: "missing or malformed jwt"}
	errPermissionDenied = httpErr{Error: "permission denied"}
	errNotFound         = httpErr{Error: "not found"}
)

type testApp struct {
	app Server

	usrRepo       user.Repository
	courseRepo    course.Repository
	enrollRepo    enroll.Repository
	interviewRepo interview.Repository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.OpenDB(t)
	a := &testApp{
		usrRepo:       dummydb.NewUserRepository(db),
		courseRepo:    dummydb.NewCourseRepository(db),
		enrollRepo:    dummydb.NewEnrollRepository(db),
		interviewRepo: dummydb.NewInterviewRepository(db),
	}
	taskRepo := dummydb.NewTaskRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	matRepo := dummydb.NewMaterialRepository(db)
	feeRepo := dummydb.NewFeeRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock()

	a.app = NewServer(ServerDeps{
		DisableReqLogs: true,
		Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
		UserSvc:        user.NewService(a.usrRepo),
		CourseSvc:      course.NewService(a.courseRepo),
		EnrollSvc:      enroll.NewService(a.enrollRepo, a.courseRepo, a.usrRepo, mailSvc),
		TaskSvc:        task.NewService(taskRepo, a.courseRepo, a.enrollRepo),
		AttendanceSvc:  attendance.NewService(attRepo, a.courseRepo, a.enrollRepo),
		MaterialSvc:    material.NewService(matRepo, a.courseRepo, a.enrollRepo),
		FeeSvc:         fee.NewService(feeRepo, a.usrRepo, mailSvc),
		InterviewSvc:   interview.NewService(a.interviewRepo, a.usrRepo),
	})
	return a
}

func (a *testApp) createUser(t *testing.T, name, uname string, role policy.Role, isActive bool) user.User {
	t.Helper()
	return testutil.CreateUser(t, a.usrRepo, name, uname, uname+"@test.cd", "", role, isActive)
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
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func marshallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{} // a nil slice marshals to `null`; handlers serialize empty listings as `[]`
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshallList(): %v", err)
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
