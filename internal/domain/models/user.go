// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a platform participant can hold.
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
)

// IsValidRole reports whether role is one of the two platform roles.
func IsValidRole(role string) bool {
	return role == RoleStudent || role == RoleAlumni
}

// OppositeRole returns the role a viewer browses in the directory:
// students look for alumni mentors and alumni look for students.
func OppositeRole(role string) string {
	if role == RoleStudent {
		return RoleAlumni
	}
	return RoleStudent
}

// Auth methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// Set-valued fields on the user document. The mentorship workflow and the
// directory query both refer to them by name.
const (
	FieldMyMentors       = "my_mentors"
	FieldMyMentees       = "my_mentees"
	FieldPendingRequests = "pending_mentee_requests"
)

// User represents one platform participant, student or alumni.
//
// NOTE:
//   - Connection state lives on the user document as set membership
//     (MyMentors / MyMentees / PendingMenteeRequests). In symmetric mode a
//     versioned pair record in the connections collection guards changes.
//   - Role-specific fields are empty for the other role.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	Role         string             `bson:"role" json:"role"` // student | alumni
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	PasswordHash *string            `bson:"password_hash,omitempty" json:"-"`

	IsProfileComplete bool `bson:"is_profile_complete" json:"is_profile_complete"`

	// Student fields
	University      string               `bson:"university,omitempty" json:"university,omitempty"`
	FieldOfInterest string               `bson:"field_of_interest,omitempty" json:"field_of_interest,omitempty"`
	PursuingCourse  string               `bson:"pursuing_course,omitempty" json:"pursuing_course,omitempty"`
	MyMentors       []primitive.ObjectID `bson:"my_mentors,omitempty" json:"my_mentors,omitempty"`

	// Alumni fields
	PassOutUniversity     string               `bson:"pass_out_university,omitempty" json:"pass_out_university,omitempty"`
	WorkingField          string               `bson:"working_field,omitempty" json:"working_field,omitempty"`
	Bio                   string               `bson:"bio,omitempty" json:"bio,omitempty"`
	MyMentees             []primitive.ObjectID `bson:"my_mentees,omitempty" json:"my_mentees,omitempty"`
	PendingMenteeRequests []primitive.ObjectID `bson:"pending_mentee_requests,omitempty" json:"pending_mentee_requests,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsAlumni reports whether the user holds the alumni role.
func (u *User) IsAlumni() bool { return u.Role == RoleAlumni }

// HasMentor reports whether id is in the student's mentor set.
func (u *User) HasMentor(id primitive.ObjectID) bool { return containsID(u.MyMentors, id) }

// HasMentee reports whether id is in the alumnus's mentee set.
func (u *User) HasMentee(id primitive.ObjectID) bool { return containsID(u.MyMentees, id) }

// HasPendingRequest reports whether id is in the alumnus's pending set.
func (u *User) HasPendingRequest(id primitive.ObjectID) bool {
	return containsID(u.PendingMenteeRequests, id)
}

// Connections returns the user's own mutual-reference set.
func (u *User) Connections() []primitive.ObjectID {
	if u.IsStudent() {
		return u.MyMentors
	}
	return u.MyMentees
}

// ConnectionField returns the bson name of the user's own mutual-reference set.
func ConnectionField(role string) string {
	if role == RoleStudent {
		return FieldMyMentors
	}
	return FieldMyMentees
}

// Field returns the profile value the directory filters on for this role
// (field of interest for students, working field for alumni).
func (u *User) Field() string {
	if u.IsStudent() {
		return u.FieldOfInterest
	}
	return u.WorkingField
}

// School returns the university value the directory filters on for this role.
func (u *User) School() string {
	if u.IsStudent() {
		return u.University
	}
	return u.PassOutUniversity
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// PublicProfile is the view of a user shown to other users: directory
// cards, connection lists, and profile pages. It never carries credentials
// or connection sets.
type PublicProfile struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Role     string             `json:"role"`

	University      string `json:"university,omitempty"`
	FieldOfInterest string `json:"field_of_interest,omitempty"`
	PursuingCourse  string `json:"pursuing_course,omitempty"`

	PassOutUniversity string `json:"pass_out_university,omitempty"`
	WorkingField      string `json:"working_field,omitempty"`
	Bio               string `json:"bio,omitempty"`
}

// Public returns the user's public view.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:                u.ID,
		FullName:          u.FullName,
		Role:              u.Role,
		University:        u.University,
		FieldOfInterest:   u.FieldOfInterest,
		PursuingCourse:    u.PursuingCourse,
		PassOutUniversity: u.PassOutUniversity,
		WorkingField:      u.WorkingField,
		Bio:               u.Bio,
	}
}

// PublicProfiles maps users to their public views.
func PublicProfiles(us []User) []PublicProfile {
	out := make([]PublicProfile, 0, len(us))
	for i := range us {
		out = append(out, us[i].Public())
	}
	return out
}
