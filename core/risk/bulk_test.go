package risk

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/learnpulse/backend/core/student"
	dummydb "github.com/learnpulse/backend/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type recordingAlerter struct {
	delivered bool
	calls     []string // rolls, in call order
}

func (a *recordingAlerter) SendAlert(_, roll, _ string, _ float64, _ Level) bool {
	a.calls = append(a.calls, roll)
	return a.delivered
}

type flakyRepo struct {
	student.Repository
	failID string
}

func (r flakyRepo) SetStudentRisk(ctx context.Context, id string, score int) error {
	if id == r.failID {
		return errors.New("write refused")
	}
	return r.Repository.SetStudentRisk(ctx, id, score)
}

func setupStudents(t *testing.T, repo student.Repository, gpas []float64) []student.Student {
	t.Helper()
	svc := student.NewService(repo)
	students := make([]student.Student, 0, len(gpas))
	for i, gpa := range gpas {
		gpa := gpa
		std, err := svc.Create(context.Background(), student.NewStudent{
			Name: "Student", Roll: string(rune('A' + i)), Dept: "CS", GPA: &gpa,
		})
		if err != nil {
			t.Fatalf("setupStudents() failed: %v", err)
		}
		students = append(students, std)
	}
	return students
}

func TestBulkUpdater_UpdateAll(t *testing.T) {
	db, _ := dummydb.Open()
	repo := dummydb.NewStudentRepository(db)
	svc := student.NewService(repo)
	ctx := context.Background()

	students := setupStudents(t, repo, []float64{3.0, 7.5, 5.0})

	// fixed classifier: everyone scores 0.2*10 + 0.3*55 + 0.5*95 = 66.0
	scorer := NewScorer(stubClassifier{class: 2, probs: [NumClasses]float64{0.2, 0.3, 0.5}})
	alerter := &recordingAlerter{delivered: true}

	updater := NewBulkUpdater(scorer, svc, alerter, 70, nopLogger{})
	summary, err := updater.UpdateAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Updated)
	assert.Equal(t, 0, summary.Alerted) // 66 < 70
	assert.Empty(t, summary.Failures)
	assert.Empty(t, alerter.calls)

	// every student got the rounded score persisted
	for _, std := range students {
		got, err := svc.GetByID(ctx, std.ID)
		assert.NoError(t, err)
		assert.True(t, got.Risk.Valid)
		assert.Equal(t, 66, got.Risk.Int)
	}
}

func TestBulkUpdater_UpdateAll_alerts(t *testing.T) {
	db, _ := dummydb.Open()
	repo := dummydb.NewStudentRepository(db)
	svc := student.NewService(repo)

	setupStudents(t, repo, []float64{3.0, 7.5})

	// 0.1*10 + 0.1*55 + 0.8*95 = 82.5 >= 70 for everyone
	scorer := NewScorer(stubClassifier{class: 2, probs: [NumClasses]float64{0.1, 0.1, 0.8}})

	t.Run("delivered alerts are counted once per student", func(t *testing.T) {
		alerter := &recordingAlerter{delivered: true}
		updater := NewBulkUpdater(scorer, svc, alerter, 70, nopLogger{})

		summary, err := updater.UpdateAll(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Updated)
		assert.Equal(t, 2, summary.Alerted)
		assert.Len(t, alerter.calls, 2)
	})

	t.Run("failed delivery does not count and does not abort", func(t *testing.T) {
		alerter := &recordingAlerter{delivered: false}
		updater := NewBulkUpdater(scorer, svc, alerter, 70, nopLogger{})

		summary, err := updater.UpdateAll(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Updated)
		assert.Equal(t, 0, summary.Alerted)
		assert.Len(t, alerter.calls, 2) // one attempt each, still
	})
}

func TestBulkUpdater_UpdateAll_perStudentIsolation(t *testing.T) {
	db, _ := dummydb.Open()
	repo := dummydb.NewStudentRepository(db)

	students := setupStudents(t, repo, []float64{3.0, 7.5, 5.0})
	svc := student.NewService(flakyRepo{Repository: repo, failID: students[1].ID})

	scorer := NewScorer(stubClassifier{class: 0, probs: [NumClasses]float64{1, 0, 0}})
	alerter := &recordingAlerter{delivered: true}
	updater := NewBulkUpdater(scorer, svc, alerter, 70, nopLogger{})

	summary, err := updater.UpdateAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
	assert.Len(t, summary.Failures, 1)
	assert.Equal(t, students[1].ID, summary.Failures[0].StudentID)

	// the two healthy records were still persisted
	for _, std := range []student.Student{students[0], students[2]} {
		got, err := svc.GetByID(context.Background(), std.ID)
		assert.NoError(t, err)
		assert.True(t, got.Risk.Valid)
	}
}

func TestBulkUpdater_UpdateAll_populationDefaults(t *testing.T) {
	db, _ := dummydb.Open()
	repo := dummydb.NewStudentRepository(db)
	svc := student.NewService(repo)
	ctx := context.Background()

	// no gpa, no attendance on record
	if _, err := svc.Create(ctx, student.NewStudent{Name: "Blank", Roll: "B1", Dept: "CS"}); err != nil {
		t.Fatalf("creating student failed: %v", err)
	}

	var seen FeatureVector
	spy := classifierFunc(func(fv FeatureVector) (int, [NumClasses]float64, error) {
		seen = fv
		return 0, [NumClasses]float64{1, 0, 0}, nil
	})

	updater := NewBulkUpdater(NewScorer(spy), svc, &recordingAlerter{}, 70, nopLogger{})
	_, err := updater.UpdateAll(ctx)
	assert.NoError(t, err)
	assert.Equal(t, FeatureVector{DefaultGPA, DefaultAttendance, DefaultAvgInternal, 0, 0}, seen)
}

type classifierFunc func(FeatureVector) (int, [NumClasses]float64, error)

func (f classifierFunc) Predict(fv FeatureVector) (int, [NumClasses]float64, error) { return f(fv) }
