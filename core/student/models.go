package student

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// DefaultMaxMarks is the assessment total used when a mark omits max_marks.
const DefaultMaxMarks = 50.0

type Student struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Roll string `json:"roll" db:"roll"`
	Dept string `json:"dept" db:"dept"`
	// GPA is on a 0-10 scale; Attendance is a percentage.
	// Both are nullable: bulk risk updates substitute population defaults.
	GPA        null.Float64 `json:"gpa" db:"gpa"`
	Attendance null.Int     `json:"attendance" db:"attendance"`
	// Risk is the last persisted risk score (0-100, rounded).
	Risk      null.Int  `json:"risk" db:"risk"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Mark is one internal-assessment record for a student in a subject.
// HasUPC flags an unexcused period of absence; UPCDays counts its days.
type Mark struct {
	ID          string       `json:"id" db:"id"`
	StudentID   string       `json:"student_id" db:"student_id"`
	Subject     string       `json:"subject" db:"subject"`
	Marks       float64      `json:"marks" db:"marks"`
	MaxMarks    float64      `json:"max_marks" db:"max_marks"`
	AvgInternal null.Float64 `json:"avg_internal" db:"avg_internal"`
	HasUPC      bool         `json:"has_upc" db:"has_upc"`
	UPCDays     null.Float64 `json:"upc_days" db:"upc_days"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

type NewStudent struct {
	Name       string   `json:"name" validate:"required"`
	Roll       string   `json:"roll" validate:"required"`
	Dept       string   `json:"dept" validate:"required"`
	GPA        *float64 `json:"gpa" validate:"omitempty,gte=0,lte=10"`
	Attendance *int     `json:"attendance" validate:"omitempty,gte=0,lte=100"`
}

func (ns *NewStudent) Clean() {
	ns.Name = strings.TrimSpace(ns.Name)
	ns.Roll = strings.TrimSpace(ns.Roll)
	ns.Dept = strings.TrimSpace(ns.Dept)
}

type UpdateStudent struct {
	Name       string   `json:"name"`
	Roll       string   `json:"roll"`
	Dept       string   `json:"dept"`
	GPA        *float64 `json:"gpa" validate:"omitempty,gte=0,lte=10"`
	Attendance *int     `json:"attendance" validate:"omitempty,gte=0,lte=100"`
}

type NewMark struct {
	StudentID   string   `json:"student_id" validate:"required"`
	Subject     string   `json:"subject" validate:"required"`
	Marks       float64  `json:"marks" validate:"gte=0"`
	MaxMarks    float64  `json:"max_marks" validate:"omitempty,gt=0"`
	AvgInternal *float64 `json:"avg_internal" validate:"omitempty,gte=0"`
	HasUPC      bool     `json:"has_upc"`
	UPCDays     *float64 `json:"upc_days" validate:"omitempty,gte=0"`
}

func (nm *NewMark) Clean() {
	nm.StudentID = strings.TrimSpace(nm.StudentID)
	nm.Subject = strings.TrimSpace(nm.Subject)
	if nm.MaxMarks == 0 {
		nm.MaxMarks = DefaultMaxMarks
	}
}
