package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/volatiletech/null/v8"
)

// Roles
const (
	RoleAdmin   = "admin:"
	RoleTeacher = "teacher:"
	RoleStudent = "student:"
)

var (
	AdminRoles   = []string{RoleAdmin}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = []string{RoleAdmin, RoleTeacher, RoleStudent}

	rolePriorities = map[string]int{
		RoleAdmin:   30,
		RoleTeacher: 20,
		RoleStudent: 10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type User struct {
	ID           string   `json:"id" db:"id"`
	Name         string   `json:"name" db:"name"`
	Username     string   `json:"username" db:"username"`
	Email        string   `json:"email" db:"email"`
	IsActive     bool     `json:"is_active" db:"is_active"`
	Roles        []string `json:"roles" db:"-"`
	PasswordHash []byte   `json:"-" db:"password_hash"`
	// StudentID links a student account to its student record.
	StudentID null.String `json:"student_id" db:"student_id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"` // UTC
	LastLogin time.Time   `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) roleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool   { return u.roleStartsWith(RoleAdmin) }
func (u *User) IsTeacher() bool { return u.roleStartsWith(RoleTeacher) }
func (u *User) IsStudent() bool { return u.roleStartsWith(RoleStudent) }

type NewUser struct {
	Name      string   `json:"name" validate:"required"`
	Username  string   `json:"username" validate:"required,alphanum_"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required"`
	Roles     []string `json:"roles" validate:"omitempty,allroles"`
	StudentID string   `json:"student_id" validate:"omitempty,uuid4"`
}

func (nu *NewUser) Clean() {
	nu.Name = strings.TrimSpace(nu.Name)
	nu.Username = strings.ToLower(strings.TrimSpace(nu.Username))
	nu.Email = strings.ToLower(strings.TrimSpace(nu.Email))
}
