package dummydb

import (
	"sync"

	"github.com/learnpulse/backend/core/student"
	"github.com/learnpulse/backend/core/user"
)

type (
	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	markTable struct {
		sync.RWMutex
		table map[string]*student.Mark
	}

	// DB is an in-memory store used in tests and local development.
	DB struct {
		user    *userTable
		student *studentTable
		mark    *markTable
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		student: &studentTable{table: make(map[string]*student.Student)},
		mark:    &markTable{table: make(map[string]*student.Mark)},
	}
	return db, nil
}
