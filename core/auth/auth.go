// Package auth checks login credentials against the administrator pair, the teachers and the students.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/student"
	"github.com/trezcool/academia/core/teacher"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// AdminID is the identity id of the administrator, who has no stored account.
const AdminID = "admin"

// Identity is who a session acts as.
type Identity struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	GradeID       string `json:"gradeId,omitempty"`
	SubdivisionID string `json:"subdivisionId,omitempty"`
}

func (id Identity) LogPerson() core.LogPerson {
	return core.LogPerson{ID: id.ID, Name: id.Name, Role: id.Role}
}

type Authenticator struct {
	admin    core.AdminConfig
	teachers *teacher.Service
	students *student.Service
}

func NewAuthenticator(admin core.AdminConfig, teachers *teacher.Service, students *student.Service) (*Authenticator, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(admin.Username, "admin.Username"),
		vala.StringNotEmpty(admin.Password, "admin.Password"),
		vala.IsNotNil(teachers, "teachers"),
		vala.IsNotNil(students, "students"),
	).Check(); err != nil {
		return nil, err
	}
	return &Authenticator{admin: admin, teachers: teachers, students: students}, nil
}

// Login returns the identity unlocked by the credentials, or nil when they match no active account.
// Errors are only returned when the store fails.
//
// The administrator pair is checked first, then teachers, then students. An account matches when
// its custom id or its name equals username; among several matches the oldest active account whose
// password or mobile number equals password wins. Usernames are compared as submitted, without trimming or case folding.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		return nil, nil
	}

	if username == a.admin.Username && CheckAdminPassword(a.admin.Password, password) {
		return &Identity{ID: AdminID, Name: a.admin.Username, Role: RoleAdmin}, nil
	}

	teachers, err := a.teachers.FindByLogin(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}
	for _, t := range teachers {
		if t.IsActive() && account.CheckSecret(t.Password, t.Mobile, password) {
			return teacherIdentity(t), nil
		}
	}

	students, err := a.students.FindByLogin(ctx, username)
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}
	for _, s := range students {
		if s.IsActive() && account.CheckSecret(s.Password, s.Mobile, password) {
			return studentIdentity(s), nil
		}
	}
	return nil, nil
}

// Identify reloads the identity of a session, returning nil once the account is gone or suspended.
func (a *Authenticator) Identify(ctx context.Context, role, id string) (*Identity, error) {
	switch role {
	case RoleAdmin:
		if id != AdminID {
			return nil, nil
		}
		return &Identity{ID: AdminID, Name: a.admin.Username, Role: RoleAdmin}, nil
	case RoleTeacher:
		t, found, err := a.teachers.Get(ctx, id)
		if err != nil || !found || !t.IsActive() {
			return nil, err
		}
		return teacherIdentity(t), nil
	case RoleStudent:
		s, found, err := a.students.Get(ctx, id)
		if err != nil || !found || !s.IsActive() {
			return nil, err
		}
		return studentIdentity(s), nil
	}
	return nil, nil
}

func teacherIdentity(t teacher.Teacher) *Identity {
	return &Identity{ID: t.ID, Name: t.Name, Role: RoleTeacher, GradeID: t.GradeID, SubdivisionID: t.SubdivisionID.String}
}

func studentIdentity(s student.Student) *Identity {
	return &Identity{ID: s.ID, Name: s.Name, Role: RoleStudent, GradeID: s.GradeID, SubdivisionID: s.SubdivisionID.String}
}

// CheckAdminPassword compares submitted with the configured password, which may be a bcrypt hash.
func CheckAdminPassword(configured, submitted string) bool {
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}

// HashAdminPassword returns the bcrypt hash to configure as the administrator password.
func HashAdminPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hashing password")
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	if !strings.HasPrefix(s, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
