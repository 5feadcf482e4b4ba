package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/learnpulse/backend/core/risk"
	"github.com/learnpulse/backend/core/user"
)

func Test_riskApi_predict(t *testing.T) {
	// always "medium" with full certainty
	env := setup(t, stubClassifier{probs: [risk.NumClasses]float64{0, 1, 0}})

	admin := createUser(t, env.userSvc, "Admin", "admin", "admin@test.cd", user.AdminRoles, "")
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")
	hero := createUser(t, env.userSvc, "Hero", "hero", "hero@test.cd", user.StudentRoles, "")

	body := marchallObj(t, PredictRequest{StudentID: "std-1", GPA: 6.5, Attendance: 80})

	tests := []httpTest{
		{name: "auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "students denied", body: body, token: getToken(t, hero), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "teacher predicts", body: body, token: getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, PredictResponse{
				StudentID:  "std-1",
				Score:      55,
				Level:      risk.LevelMedium,
				Confidence: 100,
				Factors: map[string]string{
					"gpa":        "Satisfactory GPA",
					"attendance": "Good attendance",
					"marks":      "Below average marks (< 60%)",
				},
			}),
		},
		{
			name: "admin predicts", body: body, token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, PredictResponse{
				StudentID:  "std-1",
				Score:      55,
				Level:      risk.LevelMedium,
				Confidence: 100,
				Factors: map[string]string{
					"gpa":        "Satisfactory GPA",
					"attendance": "Good attendance",
					"marks":      "Below average marks (< 60%)",
				},
			}),
		},
		{
			name:     "invalid gpa",
			body:     marchallObj(t, PredictRequest{GPA: 11, Attendance: 80}),
			token:    getToken(t, teacher),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/risk/predict", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_riskApi_predict_marksLowerTheFeatures(t *testing.T) {
	env := setup(t, stubClassifier{probs: [risk.NumClasses]float64{0.1, 0.2, 0.7}})
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")

	avgInternal := 15.0
	upcDays := 4.0
	body := marchallObj(t, PredictRequest{
		StudentID:  "std-2",
		GPA:        3.2,
		Attendance: 42,
		Marks: []MarkEntry{
			{Subject: "Maths", Marks: 15, AvgInternal: &avgInternal, HasUPC: true, UPCDays: &upcDays},
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/risk/predict", getToken(t, teacher), body)
	env.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	var resp PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if resp.Score != 78.5 { // 0.1*10 + 0.2*55 + 0.7*95
		t.Errorf("Score = %v; want 78.5", resp.Score)
	}
	if resp.Level != risk.LevelHigh {
		t.Errorf("Level = %v; want %v", resp.Level, risk.LevelHigh)
	}
	wantFactors := map[string]string{
		"gpa":        "Very low GPA (< 4.0)",
		"attendance": "Critical attendance (< 50%)",
		"marks":      "Very low internal marks (< 40%)",
		"upc":        "High UPC days missed",
	}
	for key, want := range wantFactors {
		if got := resp.Factors[key]; got != want {
			t.Errorf("Factors[%q] = %q; want %q", key, got, want)
		}
	}
}

func Test_riskApi_predict_modelUnavailable(t *testing.T) {
	env := setup(t, nil) // no trained model loaded
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")

	body := marchallObj(t, PredictRequest{GPA: 6.5, Attendance: 80})
	req, rec := newAuthRequest(http.MethodPost, "/v1/risk/predict", getToken(t, teacher), body)
	env.server.ServeHTTP(rec, req)

	tt := httpTest{wantCode: http.StatusServiceUnavailable, wantData: marchallObj(t, httpErr{Error: "ML model not trained"})}
	checkCodeAndData(t, tt, rec)
}

func Test_riskApi_updateAll(t *testing.T) {
	// high risk with 90% certainty; score = 0.9*95 + 0.1*55 = 91
	env := setup(t, stubClassifier{probs: [risk.NumClasses]float64{0, 0.1, 0.9}})
	env.alerter.delivered = true

	admin := createUser(t, env.userSvc, "Admin", "admin", "admin@test.cd", user.AdminRoles, "")
	teacher := createUser(t, env.userSvc, "Teacher", "teacher", "teacher@test.cd", user.TeacherRoles, "")

	gpa := 2.5
	att := 30
	std1 := createStudent(t, env.studentSvc, "Hero", "CS-001", "CS", &gpa, &att)
	std2 := createStudent(t, env.studentSvc, "King", "CS-002", "CS", nil, nil)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", token: getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "updates whole population", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, UpdateAllResponse{
				Message:  "Updated 2 students",
				Updated:  2,
				Alerted:  2,
				Failures: []risk.Failure{},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/risk/update-all", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// scores must be persisted
	for _, id := range []string{std1.ID, std2.ID} {
		std, err := env.studentSvc.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID(%v) failed: %v", id, err)
		}
		if !std.Risk.Valid || std.Risk.Int != 91 {
			t.Errorf("student %v risk = %+v; want 91", id, std.Risk)
		}
	}
}
