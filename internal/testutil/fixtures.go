package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T

	// clock spaces out created_at so directory ordering is deterministic.
	clock time.Time
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t, clock: time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// CreateUser inserts a user with the given role. The profile is left
// incomplete, as it is right after sign-up.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	now := f.tick()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       role,
		AuthMethod: models.AuthPassword,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent inserts a profile-complete student.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email, university, field string) models.User {
	f.t.Helper()

	now := f.tick()
	user := models.User{
		ID:                primitive.NewObjectID(),
		FullName:          fullName,
		FullNameCI:        text.Fold(fullName),
		Email:             email,
		Role:              models.RoleStudent,
		AuthMethod:        models.AuthPassword,
		IsProfileComplete: true,
		University:        university,
		FieldOfInterest:   field,
		PursuingCourse:    "B.Tech",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return user
}

// CreateAlumnus inserts a profile-complete alumnus.
func (f *Fixtures) CreateAlumnus(ctx context.Context, fullName, email, university, field string) models.User {
	f.t.Helper()

	now := f.tick()
	user := models.User{
		ID:                primitive.NewObjectID(),
		FullName:          fullName,
		FullNameCI:        text.Fold(fullName),
		Email:             email,
		Role:              models.RoleAlumni,
		AuthMethod:        models.AuthPassword,
		IsProfileComplete: true,
		PassOutUniversity: university,
		WorkingField:      field,
		Bio:               "Happy to help.",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test alumnus: %v", err)
	}
	return user
}

// Reload reads a user back from the database.
func (f *Fixtures) Reload(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()

	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, primitive.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to reload user %s: %v", id.Hex(), err)
	}
	return u
}
