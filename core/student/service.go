package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/learnpulse/backend/core"
)

var (
	ErrNotFound     = errors.New("student not found")
	ErrMarkNotFound = errors.New("mark not found")
	ErrRollExists   = errors.New("a student with this roll number already exists")
)

type (
	Repository interface {
		CheckRollUniqueness(ctx context.Context, roll string, excludedStudents ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		// SetStudentRisk persists a freshly computed risk score on the student record.
		SetStudentRisk(ctx context.Context, id string, score int) error
		DeleteStudentsByID(ctx context.Context, ids ...string) error

		CreateMark(ctx context.Context, mark Mark) (Mark, error)
		QueryAllMarks(ctx context.Context) ([]Mark, error)
		FilterMarksByStudent(ctx context.Context, studentID string) ([]Mark, error)
		GetMarkByID(ctx context.Context, id string) (Mark, error)
		UpdateMarkScore(ctx context.Context, id string, marks float64) (Mark, error)
		DeleteMarksByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := svc.repo.CheckRollUniqueness(ctx, ns.Roll); err != nil {
		if err == ErrRollExists {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "roll", Error: err.Error()})
		}
		return Student{}, err
	}

	now := time.Now().UTC()
	std := Student{
		ID:        uuid.New().String(),
		Name:      ns.Name,
		Roll:      ns.Roll,
		Dept:      ns.Dept,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.GPA != nil {
		std.GPA.SetValid(*ns.GPA)
	}
	if ns.Attendance != nil {
		std.Attendance.SetValid(*ns.Attendance)
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	if us.Roll != "" && us.Roll != std.Roll {
		if err = svc.repo.CheckRollUniqueness(ctx, us.Roll, std); err != nil {
			if err == ErrRollExists {
				return Student{}, core.NewValidationError(err, core.FieldError{Field: "roll", Error: err.Error()})
			}
			return Student{}, err
		}
		std.Roll = us.Roll
	}
	if us.Name != "" {
		std.Name = us.Name
	}
	if us.Dept != "" {
		std.Dept = us.Dept
	}
	if us.GPA != nil {
		std.GPA.SetValid(*us.GPA)
	}
	if us.Attendance != nil {
		std.Attendance.SetValid(*us.Attendance)
	}
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc *Service) SetRisk(ctx context.Context, id string, score int) error {
	return svc.repo.SetStudentRisk(ctx, id, score)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}

// Marks

func (svc *Service) AddMark(ctx context.Context, nm NewMark) (Mark, error) {
	nm.Clean()
	if _, err := svc.repo.GetStudentByID(ctx, nm.StudentID); err != nil {
		if err == ErrNotFound {
			return Mark{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Mark{}, err
	}

	now := time.Now().UTC()
	mark := Mark{
		ID:        uuid.New().String(),
		StudentID: nm.StudentID,
		Subject:   nm.Subject,
		Marks:     nm.Marks,
		MaxMarks:  nm.MaxMarks,
		HasUPC:    nm.HasUPC,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nm.AvgInternal != nil {
		mark.AvgInternal.SetValid(*nm.AvgInternal)
	}
	if nm.UPCDays != nil {
		mark.UPCDays.SetValid(*nm.UPCDays)
	}
	return svc.repo.CreateMark(ctx, mark)
}

func (svc *Service) QueryAllMarks(ctx context.Context) ([]Mark, error) {
	return svc.repo.QueryAllMarks(ctx)
}

func (svc *Service) MarksForStudent(ctx context.Context, studentID string) ([]Mark, error) {
	return svc.repo.FilterMarksByStudent(ctx, studentID)
}

func (svc *Service) UpdateMarkScore(ctx context.Context, id string, marks float64) (Mark, error) {
	return svc.repo.UpdateMarkScore(ctx, id, marks)
}

func (svc *Service) DeleteMark(ctx context.Context, id string) error {
	return svc.repo.DeleteMarksByID(ctx, id)
}
