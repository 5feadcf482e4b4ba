package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/learnpulse/backend/core"
	"github.com/learnpulse/backend/core/student"
)

// Population defaults substituted when a student record has no stored value.
// These apply per student; they are distinct from the per-mark
// DefaultAvgInternal used inside feature extraction.
const (
	DefaultGPA        = 5.0
	DefaultAttendance = 75
)

type (
	// Alerter notifies staff about a high-risk student.
	// It reports whether the alert was delivered.
	Alerter interface {
		SendAlert(name, roll, dept string, score float64, level Level) bool
	}

	// Failure records one student that could not be processed during a bulk run.
	Failure struct {
		StudentID string `json:"student_id"`
		Error     string `json:"error"`
	}

	// BulkSummary aggregates one bulk run.
	BulkSummary struct {
		Updated  int       `json:"updated"`
		Alerted  int       `json:"alerted"`
		Failures []Failure `json:"failures,omitempty"`
	}

	// BulkUpdater recomputes and persists risk scores for the whole student
	// population, alerting on students at or above the high-risk threshold.
	BulkUpdater struct {
		scorer     *Scorer
		studentSvc *student.Service
		alerter    Alerter
		threshold  float64
		logger     core.Logger
	}
)

func NewBulkUpdater(scorer *Scorer, studentSvc *student.Service, alerter Alerter, threshold float64, logger core.Logger) *BulkUpdater {
	return &BulkUpdater{
		scorer:     scorer,
		studentSvc: studentSvc,
		alerter:    alerter,
		threshold:  threshold,
		logger:     logger,
	}
}

// UpdateAll scores every student against their marks, persists the rounded
// score and fires at most one alert per qualifying student. Each student runs
// in its own error boundary: a bad record is collected as a Failure and the
// run continues. Only the initial batch reads abort the whole run.
func (bu *BulkUpdater) UpdateAll(ctx context.Context) (BulkSummary, error) {
	var summary BulkSummary

	students, err := bu.studentSvc.QueryAll(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "querying students")
	}
	allMarks, err := bu.studentSvc.QueryAllMarks(ctx)
	if err != nil {
		return summary, errors.Wrap(err, "querying marks")
	}

	marksByStudent := make(map[string][]student.Mark, len(students))
	for _, m := range allMarks {
		marksByStudent[m.StudentID] = append(marksByStudent[m.StudentID], m)
	}

	for _, std := range students {
		res, err := bu.updateStudent(ctx, std, marksByStudent[std.ID])
		if err != nil {
			summary.Failures = append(summary.Failures, Failure{StudentID: std.ID, Error: err.Error()})
			bu.logger.Error(fmt.Sprintf("bulk risk update: student %s: %v", std.ID, err), err)
			continue
		}
		summary.Updated++

		if res.Score >= bu.threshold {
			if bu.alerter.SendAlert(std.Name, std.Roll, std.Dept, res.Score, res.Level) {
				summary.Alerted++
			}
		}
	}
	return summary, nil
}

func (bu *BulkUpdater) updateStudent(ctx context.Context, std student.Student, marks []student.Mark) (Result, error) {
	gpa := DefaultGPA
	if std.GPA.Valid {
		gpa = std.GPA.Float64
	}
	attendance := float64(DefaultAttendance)
	if std.Attendance.Valid {
		attendance = float64(std.Attendance.Int)
	}

	res, err := bu.scorer.Score(gpa, attendance, marks)
	if err != nil {
		return Result{}, errors.Wrap(err, "scoring")
	}
	if err = bu.studentSvc.SetRisk(ctx, std.ID, int(math.Round(res.Score))); err != nil {
		return Result{}, errors.Wrap(err, "persisting risk score")
	}
	return res, nil
}
