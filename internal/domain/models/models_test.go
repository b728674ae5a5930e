package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOppositeRole(t *testing.T) {
	if got := OppositeRole(RoleStudent); got != RoleAlumni {
		t.Errorf("OppositeRole(student) = %q", got)
	}
	if got := OppositeRole(RoleAlumni); got != RoleStudent {
		t.Errorf("OppositeRole(alumni) = %q", got)
	}
}

func TestConversationKey_OrderIndependent(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	k1, p1 := ConversationKey(a, b)
	k2, p2 := ConversationKey(b, a)
	if k1 != k2 {
		t.Errorf("keys differ: %q vs %q", k1, k2)
	}
	if p1[0] != p2[0] || p1[1] != p2[1] || p1[0].Hex() > p1[1].Hex() {
		t.Errorf("participants not sorted: %v %v", p1, p2)
	}
}

func TestUserRoleAccessors(t *testing.T) {
	mentor := primitive.NewObjectID()
	s := User{
		Role:            RoleStudent,
		University:      "MIT",
		FieldOfInterest: "Robotics",
		MyMentors:       []primitive.ObjectID{mentor},
	}
	if s.School() != "MIT" || s.Field() != "Robotics" {
		t.Errorf("student School/Field = %q/%q", s.School(), s.Field())
	}
	if !s.HasMentor(mentor) || len(s.Connections()) != 1 {
		t.Error("student should list its mentor")
	}

	student := primitive.NewObjectID()
	a := User{
		Role:                  RoleAlumni,
		PassOutUniversity:     "Stanford",
		WorkingField:          "Design",
		PendingMenteeRequests: []primitive.ObjectID{student},
	}
	if a.School() != "Stanford" || a.Field() != "Design" {
		t.Errorf("alumni School/Field = %q/%q", a.School(), a.Field())
	}
	if !a.HasPendingRequest(student) || a.HasMentee(student) {
		t.Error("pending request should not count as a mentee")
	}
	if ConnectionField(RoleAlumni) != FieldMyMentees || ConnectionField(RoleStudent) != FieldMyMentors {
		t.Error("ConnectionField mismatch")
	}
}

func TestNewPair(t *testing.T) {
	s, a := primitive.NewObjectID(), primitive.NewObjectID()
	p := NewPair(s, a)
	if p.State != StateNone || p.Version != 0 || p.Key != PairKey(s, a) {
		t.Errorf("NewPair = %+v", p)
	}
}

func TestPublicOmitsSets(t *testing.T) {
	u := User{ID: primitive.NewObjectID(), FullName: "Asha", Role: RoleAlumni, Bio: "hi",
		MyMentees: []primitive.ObjectID{primitive.NewObjectID()}}
	pp := PublicProfiles([]User{u})
	if len(pp) != 1 || pp[0].FullName != "Asha" || pp[0].Bio != "hi" {
		t.Errorf("PublicProfiles = %+v", pp)
	}
}
