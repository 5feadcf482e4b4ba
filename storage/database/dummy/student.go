package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/learnpulse/backend/core/student"
)

type studentRepository struct {
	students *studentTable
	marks    *markTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{students: db.student, marks: db.mark}
}

func (repo *studentRepository) queryStudents() []student.Student {
	students := make([]student.Student, 0, len(repo.students.table))
	for _, s := range repo.students.table {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students
}

func (repo *studentRepository) CheckRollUniqueness(_ context.Context, roll string, excludedStudents ...student.Student) error {
	repo.students.RLock()
	defer repo.students.RUnlock()

	excluded := make(map[string]struct{}, len(excludedStudents))
	for _, std := range excludedStudents {
		excluded[std.ID] = struct{}{}
	}

	for _, std := range repo.queryStudents() {
		if _, ok := excluded[std.ID]; ok {
			continue
		}
		if std.Roll == roll {
			return student.ErrRollExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	repo.students.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()
	return repo.queryStudents(), nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (student.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	if std, ok := repo.students.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student) (student.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	if _, ok := repo.students.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.students.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) SetStudentRisk(_ context.Context, id string, score int) error {
	repo.students.Lock()
	defer repo.students.Unlock()

	std, ok := repo.students.table[id]
	if !ok {
		return student.ErrNotFound
	}
	std.Risk.SetValid(score)
	std.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *studentRepository) DeleteStudentsByID(_ context.Context, ids ...string) error {
	repo.students.Lock()
	defer repo.students.Unlock()

	repo.marks.Lock()
	defer repo.marks.Unlock()

	// marks cascade with their student
	for _, id := range ids {
		delete(repo.students.table, id)
		for markID, m := range repo.marks.table {
			if m.StudentID == id {
				delete(repo.marks.table, markID)
			}
		}
	}
	return nil
}

// Marks

func (repo *studentRepository) CreateMark(_ context.Context, mark student.Mark) (student.Mark, error) {
	repo.marks.Lock()
	defer repo.marks.Unlock()

	repo.marks.table[mark.ID] = &mark
	return mark, nil
}

func (repo *studentRepository) QueryAllMarks(_ context.Context) ([]student.Mark, error) {
	repo.marks.RLock()
	defer repo.marks.RUnlock()

	marks := make([]student.Mark, 0, len(repo.marks.table))
	for _, m := range repo.marks.table {
		marks = append(marks, *m)
	}
	sortMarks(marks)
	return marks, nil
}

func (repo *studentRepository) FilterMarksByStudent(_ context.Context, studentID string) ([]student.Mark, error) {
	repo.marks.RLock()
	defer repo.marks.RUnlock()

	marks := make([]student.Mark, 0)
	for _, m := range repo.marks.table {
		if m.StudentID == studentID {
			marks = append(marks, *m)
		}
	}
	sortMarks(marks)
	return marks, nil
}

func sortMarks(marks []student.Mark) {
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.Before(marks[j].CreatedAt) })
}

func (repo *studentRepository) GetMarkByID(_ context.Context, id string) (student.Mark, error) {
	repo.marks.RLock()
	defer repo.marks.RUnlock()

	if m, ok := repo.marks.table[id]; ok {
		return *m, nil
	}
	return student.Mark{}, student.ErrMarkNotFound
}

func (repo *studentRepository) UpdateMarkScore(_ context.Context, id string, marks float64) (student.Mark, error) {
	repo.marks.Lock()
	defer repo.marks.Unlock()

	m, ok := repo.marks.table[id]
	if !ok {
		return student.Mark{}, student.ErrMarkNotFound
	}
	m.Marks = marks
	m.UpdatedAt = time.Now().UTC()
	return *m, nil
}

func (repo *studentRepository) DeleteMarksByID(_ context.Context, ids ...string) error {
	repo.marks.Lock()
	defer repo.marks.Unlock()

	for _, id := range ids {
		delete(repo.marks.table, id)
	}
	return nil
}
