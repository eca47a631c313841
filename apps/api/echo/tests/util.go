package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
	"github.com/trezcool/gradebook/storage/jsonstore"
	"github.com/trezcool/gradebook/tests"
)

type testApp struct {
	Server
	svc    gradebook.Service
	store  *jsonstore.Store
	logger *testutil.Logger
}

func setup(t *testing.T) testApp {
	conf := &core.Config{AppName: "Gradebook", Env: "TEST", TestMode: true}
	conf.Server.DisableReqLogs = true
	conf.Server.MaxUploadBytes = 1 << 20

	logger := &testutil.Logger{}
	store := testutil.NewJSONStore(t, fixture(), logger)
	svc := gradebook.NewService(store, logger)

	return testApp{
		Server: NewServer(&Deps{Conf: conf, Logger: logger, Svc: svc}),
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// fixture is a small document: two classes, three students and two assignments.
func fixture() gradebook.Document {
	return gradebook.Document{
		Classes: []gradebook.Class{
			{ID: "c1", Name: "Grade 6th", Section: "Tata", StudentCount: 2, Color: "bg-red-500", GradeLevel: "6th", Campus: "Main Campus"},
			{ID: "c2", Name: "Grade 7th", Section: "Google", StudentCount: 1, Color: "bg-blue-500", GradeLevel: "7th", Campus: "Main Campus"},
		},
		Students: []gradebook.Student{
			testStudent("s1", "c1", "Ada", 91),
			testStudent("s2", "c1", "Bob", 65),
			testStudent("s3", "c2", "Cy", 55),
		},
		Alerts: []gradebook.Alert{
			{ID: "a1", StudentID: "s2", ClassID: "c1", Issue: "Low score on Lab 1", Type: "grade"},
			{ID: "a2", StudentID: "s99", ClassID: "c1", Issue: "dangling", Type: "grade"},
		},
		Assignments: []gradebook.Assignment{
			{ID: "as1", ClassID: "c1", Title: "Lab 1", DueDate: "2024-03-10", TotalPoints: 50, Type: "Lab"},
			{ID: "as2", ClassID: "c2", Title: "Quiz 1", TotalPoints: 20, Type: "Quiz"},
		},
		Grades: gradebook.Grades{
			"as1": {"s2": gradebook.NewGrade(30)},
			"as2": {},
		},
	}
}

func testStudent(id, classID, name string, grade int) gradebook.Student {
	g := gradebook.IntGrade(grade)
	return gradebook.Student{
		ID:           id,
		ClassID:      classID,
		Name:         name,
		Email:        name + "@school.edu",
		OverallGrade: g,
		Status:       gradebook.Classify(g),
		UID:          "UID-" + id,
		RollNumber:   "ROLL-" + id,
		Skills:       []string{},
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
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

func runHTTPTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.method == "" {
				tt.method = http.MethodGet
			}
			if tt.wantCode == 0 {
				tt.wantCode = http.StatusOK
			}
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
