package userstore_test

import (
	"context"
	"errors"
	"testing"

	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/mentorconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "  Asha   Rao ",
		Email:    "Asha@Example.com ",
		Role:     "Student",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullName != "Asha Rao" {
		t.Errorf("FullName = %q, want %q", created.FullName, "Asha Rao")
	}
	if created.Email != "asha@example.com" {
		t.Errorf("Email = %q, want lowercased", created.Email)
	}
	if created.Role != models.RoleStudent {
		t.Errorf("Role = %q", created.Role)
	}
	if created.AuthMethod != models.AuthPassword {
		t.Errorf("AuthMethod = %q, want default password", created.AuthMethod)
	}
	if created.IsProfileComplete {
		t.Error("new user should not be profile complete")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		u    models.User
	}{
		{"bad role", models.User{FullName: "A", Email: "a@x.com", Role: "admin"}},
		{"no name", models.User{FullName: "  ", Email: "b@x.com", Role: models.RoleAlumni}},
		{"bad auth", models.User{FullName: "C", Email: "c@x.com", Role: models.RoleAlumni, AuthMethod: "saml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.u); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := models.User{FullName: "First", Email: "dup@example.com", Role: models.RoleStudent}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	u.FullName = "Second"
	u.Email = "DUP@example.com"
	if _, err := store.Create(ctx, u); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("second Create err = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_CompleteProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	al := fixtures.CreateUser(ctx, "Vikram", "vikram@example.com", models.RoleAlumni)
	err := store.CompleteProfile(ctx, al.ID, models.RoleAlumni, userstore.ProfileSetup{
		University:        "ignored",
		PassOutUniversity: "IIT Delhi",
		WorkingField:      "  Data   Science ",
		Bio:               "<p>Hi</p>",
	})
	if err != nil {
		t.Fatalf("CompleteProfile failed: %v", err)
	}

	got := fixtures.Reload(ctx, al.ID)
	if !got.IsProfileComplete {
		t.Error("expected profile complete")
	}
	if got.WorkingField != "Data Science" {
		t.Errorf("WorkingField = %q", got.WorkingField)
	}
	if got.University != "" {
		t.Errorf("student field written for alumnus: %q", got.University)
	}

	if err := store.CompleteProfile(ctx, al.ID, models.RoleStudent, userstore.ProfileSetup{}); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("role mismatch err = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateProfile_Merge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fixtures.CreateStudent(ctx, "Meera", "meera@example.com", "NIT Trichy", "AI")
	field := "Robotics"
	changed, err := store.UpdateProfile(ctx, s.ID, models.RoleStudent, userstore.ProfileUpdate{FieldOfInterest: &field})
	if err != nil || !changed {
		t.Fatalf("UpdateProfile = %v, %v", changed, err)
	}

	got := fixtures.Reload(ctx, s.ID)
	if got.FieldOfInterest != "Robotics" {
		t.Errorf("FieldOfInterest = %q", got.FieldOfInterest)
	}
	if got.University != "NIT Trichy" || got.FullName != "Meera" {
		t.Errorf("merge clobbered fields: %+v", got)
	}

	changed, err = store.UpdateProfile(ctx, s.ID, models.RoleStudent, userstore.ProfileUpdate{})
	if err != nil || changed {
		t.Errorf("empty update = %v, %v; want false, nil", changed, err)
	}
}

func TestStore_UpdateSets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	al := fixtures.CreateAlumnus(ctx, "Ravi", "ravi@example.com", "IIT Bombay", "Finance")
	st := fixtures.CreateStudent(ctx, "Neha", "neha@example.com", "BITS", "Finance")

	add := userstore.SetChange{Add: map[string]primitive.ObjectID{models.FieldPendingRequests: st.ID}}
	for i := 0; i < 2; i++ {
		if _, err := store.UpdateSets(ctx, al.ID, add); err != nil {
			t.Fatalf("UpdateSets add: %v", err)
		}
	}
	got := fixtures.Reload(ctx, al.ID)
	if len(got.PendingMenteeRequests) != 1 {
		t.Fatalf("pending = %v, want exactly one entry", got.PendingMenteeRequests)
	}

	move := userstore.SetChange{
		Pull: map[string]primitive.ObjectID{models.FieldPendingRequests: st.ID},
		Add:  map[string]primitive.ObjectID{models.FieldMyMentees: st.ID},
	}
	if changed, err := store.UpdateSets(ctx, al.ID, move); err != nil || !changed {
		t.Fatalf("UpdateSets move = %v, %v", changed, err)
	}
	got = fixtures.Reload(ctx, al.ID)
	if got.HasPendingRequest(st.ID) || !got.HasMentee(st.ID) {
		t.Errorf("after move: pending=%v mentees=%v", got.PendingMenteeRequests, got.MyMentees)
	}

	bad := userstore.SetChange{
		Pull: map[string]primitive.ObjectID{models.FieldMyMentees: st.ID},
		Add:  map[string]primitive.ObjectID{models.FieldMyMentees: st.ID},
	}
	if _, err := store.UpdateSets(ctx, al.ID, bad); err == nil {
		t.Error("expected error when a field is both added and pulled")
	}
}

func TestStore_FindByIDs_Chunked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ids []primitive.ObjectID
	for i := 0; i < 120; i++ {
		u := fixtures.CreateUser(ctx, "User", primitive.NewObjectID().Hex()+"@example.com", models.RoleStudent)
		ids = append(ids, u.ID)
	}
	ids = append(ids, primitive.NewObjectID())

	got, err := store.FindByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(got) != 120 {
		t.Errorf("got %d users, want 120", len(got))
	}
}

func TestStore_UpsertGoogle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, _, err := store.UpsertGoogle(ctx, "new@example.com", "New", ""); !errors.Is(err, userstore.ErrRoleRequired) {
		t.Errorf("no role err = %v, want ErrRoleRequired", err)
	}

	u, created, err := store.UpsertGoogle(ctx, "new@example.com", "New Person", models.RoleAlumni)
	if err != nil || !created {
		t.Fatalf("UpsertGoogle = %v, %v", created, err)
	}
	if u.AuthMethod != models.AuthGoogle || u.PasswordHash != nil {
		t.Errorf("google user = %+v", u)
	}

	existing := fixtures.CreateStudent(ctx, "Old", "old@example.com", "X", "Y")
	u, created, err = store.UpsertGoogle(ctx, "OLD@example.com", "Whatever", models.RoleAlumni)
	if err != nil || created {
		t.Fatalf("UpsertGoogle existing = %v, %v", created, err)
	}
	if u.ID != existing.ID || u.Role != models.RoleStudent {
		t.Errorf("existing account changed: %+v", u)
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx := context.Background()

	s := fixtures.CreateStudent(ctx, "Kiran", "kiran@example.com", "IIT", "AI")
	f := userstore.NewFetcher(db)

	su := f.FetchUser(ctx, s.ID.Hex())
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.Role != models.RoleStudent || !su.ProfileComplete || su.Email != "kiran@example.com" {
		t.Errorf("session user = %+v", su)
	}

	if f.FetchUser(ctx, "not-an-id") != nil {
		t.Error("malformed id should return nil")
	}
	if f.FetchUser(ctx, primitive.NewObjectID().Hex()) != nil {
		t.Error("unknown id should return nil")
	}
}
