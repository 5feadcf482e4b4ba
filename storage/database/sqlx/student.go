package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/learnpulse/backend/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckRollUniqueness(ctx context.Context, roll string, excludedStudents ...student.Student) error {
	exclIDs := pq.StringArray{}
	for _, std := range excludedStudents {
		exclIDs = append(exclIDs, std.ID)
	}

	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM students WHERE roll = $1 AND NOT (id = ANY($2::uuid[]))`, roll, exclIDs)
	if err != nil {
		return errors.Wrap(err, "checking roll uniqueness")
	}
	if count > 0 {
		return student.ErrRollExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO students (id, name, roll, dept, gpa, attendance, risk, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		std.ID, std.Name, std.Roll, std.Dept, std.GPA, std.Attendance, std.Risk, std.CreatedAt, std.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, `SELECT * FROM students ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var std student.Student
	err := repo.db.GetContext(ctx, &std, `SELECT * FROM students WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student by ID")
	}
	return std, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET name = $2, roll = $3, dept = $4, gpa = $5, attendance = $6, updated_at = $7
		 WHERE id = $1`,
		std.ID, std.Name, std.Roll, std.Dept, std.GPA, std.Attendance, std.UpdatedAt,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo *studentRepository) SetStudentRisk(ctx context.Context, id string, score int) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET risk = $2, updated_at = $3 WHERE id = $1`,
		id, score, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "setting student risk")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = ANY($1::uuid[])`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting students")
}

// Marks

func (repo *studentRepository) CreateMark(ctx context.Context, mark student.Mark) (student.Mark, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO marks (id, student_id, subject, marks, max_marks, avg_internal, has_upc, upc_days, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		mark.ID, mark.StudentID, mark.Subject, mark.Marks, mark.MaxMarks,
		mark.AvgInternal, mark.HasUPC, mark.UPCDays, mark.CreatedAt, mark.UpdatedAt,
	)
	if err != nil {
		return student.Mark{}, errors.Wrap(err, "inserting mark")
	}
	return mark, nil
}

func (repo *studentRepository) QueryAllMarks(ctx context.Context) ([]student.Mark, error) {
	marks := make([]student.Mark, 0)
	if err := repo.db.SelectContext(ctx, &marks, `SELECT * FROM marks ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	return marks, nil
}

func (repo *studentRepository) FilterMarksByStudent(ctx context.Context, studentID string) ([]student.Mark, error) {
	marks := make([]student.Mark, 0)
	err := repo.db.SelectContext(ctx, &marks,
		`SELECT * FROM marks WHERE student_id = $1 ORDER BY created_at`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "filtering marks by student")
	}
	return marks, nil
}

func (repo *studentRepository) GetMarkByID(ctx context.Context, id string) (student.Mark, error) {
	var mark student.Mark
	err := repo.db.GetContext(ctx, &mark, `SELECT * FROM marks WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return student.Mark{}, student.ErrMarkNotFound
	}
	if err != nil {
		return student.Mark{}, errors.Wrap(err, "getting mark by ID")
	}
	return mark, nil
}

func (repo *studentRepository) UpdateMarkScore(ctx context.Context, id string, marks float64) (student.Mark, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE marks SET marks = $2, updated_at = $3 WHERE id = $1`,
		id, marks, time.Now().UTC(),
	)
	if err != nil {
		return student.Mark{}, errors.Wrap(err, "updating mark")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Mark{}, student.ErrMarkNotFound
	}
	return repo.GetMarkByID(ctx, id)
}

func (repo *studentRepository) DeleteMarksByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM marks WHERE id = ANY($1::uuid[])`, pq.StringArray(ids))
	return errors.Wrap(err, "deleting marks")
}
