package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PairState is the relationship state of one student–alumnus pair.
type PairState string

const (
	StateNone      PairState = "none"
	StateRequested PairState = "requested"
	StateConnected PairState = "connected"
)

// ConnectionPair is the versioned record guarding a pair's state in
// symmetric mode. A pair with no stored record is StateNone at version 0.
type ConnectionPair struct {
	Key       string             `bson:"_id" json:"key"`
	StudentID primitive.ObjectID `bson:"student_id" json:"student_id"`
	AlumnusID primitive.ObjectID `bson:"alumnus_id" json:"alumnus_id"`
	State     PairState          `bson:"state" json:"state"`
	Version   int64              `bson:"version" json:"version"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// PairKey builds the stable key of a student–alumnus pair.
func PairKey(studentID, alumnusID primitive.ObjectID) string {
	return studentID.Hex() + ":" + alumnusID.Hex()
}

// NewPair returns the implicit record of a pair that has never been stored.
func NewPair(studentID, alumnusID primitive.ObjectID) ConnectionPair {
	return ConnectionPair{
		Key:       PairKey(studentID, alumnusID),
		StudentID: studentID,
		AlumnusID: alumnusID,
		State:     StateNone,
	}
}
