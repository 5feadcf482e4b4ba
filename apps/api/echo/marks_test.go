package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/learnpulse/backend/core/student"
	"github.com/learnpulse/backend/core/user"
)

func Test_markApi_query(t *testing.T) {
	env := setup(t, stubClassifier{})

	std1 := createStudent(t, env.studentSvc, "Hero", "CS-001", "CS", nil, nil)
	std2 := createStudent(t, env.studentSvc, "King", "CS-002", "CS", nil, nil)
	m1 := createMark(t, env.studentSvc, std1.ID, "Maths", 32)
	m2 := createMark(t, env.studentSvc, std1.ID, "Physics", 41)
	m3 := createMark(t, env.studentSvc, std2.ID, "Maths", 18)

	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")
	hero := createUser(t, env.userSvc, "Hero", "hero", "hero@test.cd", user.StudentRoles, std1.ID)
	unlinked := createUser(t, env.userSvc, "Ghost", "ghost", "ghost@test.cd", user.StudentRoles, "")

	tests := []httpTest{
		{name: "auth required", path: "/v1/marks", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "teacher sees all", path: "/v1/marks", token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, MarkListResponse{Marks: []student.Mark{m1, m2, m3}, Total: 3}),
		},
		{
			name: "teacher filters by student", path: "/v1/marks?student_id=" + std2.ID, token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, MarkListResponse{Marks: []student.Mark{m3}, Total: 1}),
		},
		{
			name: "student sees only their own", path: "/v1/marks", token: getToken(t, hero), wantCode: http.StatusOK,
			wantData: marchallObj(t, MarkListResponse{Marks: []student.Mark{m1, m2}, Total: 2}),
		},
		{
			name: "unlinked student denied", path: "/v1/marks", token: getToken(t, unlinked), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_markApi_create(t *testing.T) {
	env := setup(t, stubClassifier{})

	std := createStudent(t, env.studentSvc, "Hero", "CS-001", "CS", nil, nil)
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")
	hero := createUser(t, env.userSvc, "Hero", "hero", "hero@test.cd", user.StudentRoles, std.ID)

	newMark := marchallObj(t, student.NewMark{StudentID: std.ID, Subject: "Maths", Marks: 32})

	tests := []httpTest{
		{name: "auth required", body: newMark, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "students denied", body: newMark, token: getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "teacher creates mark", body: newMark, token: getToken(t, teacher), wantCode: http.StatusCreated},
		{
			name:     "unknown student",
			body:     marchallObj(t, student.NewMark{StudentID: "c0ffee00-0000-4000-8000-000000000000", Subject: "Maths", Marks: 10}),
			token:    getToken(t, teacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": student.ErrNotFound.Error()}),
		},
		{
			name:     "missing subject",
			body:     marchallObj(t, student.NewMark{StudentID: std.ID, Marks: 10}),
			token:    getToken(t, teacher),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"subject": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/marks", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// max_marks must default when omitted
	marks, err := env.studentSvc.MarksForStudent(context.Background(), std.ID)
	if err != nil {
		t.Fatalf("MarksForStudent() failed: %v", err)
	}
	if len(marks) != 1 {
		t.Fatalf("len(marks) = %v; want 1", len(marks))
	}
	if marks[0].MaxMarks != student.DefaultMaxMarks {
		t.Errorf("MaxMarks = %v; want %v", marks[0].MaxMarks, student.DefaultMaxMarks)
	}
}

func Test_markApi_updateScore(t *testing.T) {
	env := setup(t, stubClassifier{})

	std := createStudent(t, env.studentSvc, "Hero", "CS-001", "CS", nil, nil)
	mark := createMark(t, env.studentSvc, std.ID, "Maths", 32)
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")

	body := marchallObj(t, UpdateMarkRequest{Marks: 45})
	req, rec := newAuthRequest(http.MethodPut, "/v1/marks/"+mark.ID, getToken(t, teacher), body)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	var updated student.Mark
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if updated.Marks != 45 {
		t.Errorf("Marks = %v; want 45", updated.Marks)
	}

	// unknown mark
	req, rec = newAuthRequest(http.MethodPut, "/v1/marks/nope", getToken(t, teacher), body)
	env.server.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
	checkCodeAndData(t, tt, rec)
}

func Test_markApi_destroy(t *testing.T) {
	env := setup(t, stubClassifier{})

	std := createStudent(t, env.studentSvc, "Hero", "CS-001", "CS", nil, nil)
	mark := createMark(t, env.studentSvc, std.ID, "Maths", 32)
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")

	req, rec := newAuthRequest(http.MethodDelete, "/v1/marks/"+mark.ID, getToken(t, teacher))
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	marks, err := env.studentSvc.MarksForStudent(context.Background(), std.ID)
	if err != nil {
		t.Fatalf("MarksForStudent() failed: %v", err)
	}
	if len(marks) != 0 {
		t.Errorf("len(marks) = %v; want 0", len(marks))
	}
}
