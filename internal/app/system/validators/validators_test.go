package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/validators"
	"github.com/dalemusser/mentorconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	collMap := make(map[string]bool)
	for _, name := range names {
		collMap[name] = true
	}
	for _, expected := range []string{"users", "connections", "conversations", "messages", "oauth_states", "login_records"} {
		if !collMap[expected] {
			t.Errorf("expected collection %q to exist", expected)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{
			name:    "missing required fields",
			doc:     bson.M{"email": "a@b.co"},
			wantErr: true,
		},
		{
			name: "valid student",
			doc: bson.M{
				"full_name": "Asha Rao", "email": "asha@example.com", "role": "student",
				"auth_method": "password", "is_profile_complete": false,
			},
		},
		{
			name: "invalid role",
			doc: bson.M{
				"full_name": "Asha Rao", "email": "asha2@example.com", "role": "admin",
				"is_profile_complete": false,
			},
			wantErr: true,
		},
		{
			name: "invalid auth method",
			doc: bson.M{
				"full_name": "Asha Rao", "email": "asha3@example.com", "role": "alumni",
				"auth_method": "clever", "is_profile_complete": false,
			},
			wantErr: true,
		},
		{
			name: "non-id in mentor set",
			doc: bson.M{
				"full_name": "Asha Rao", "email": "asha4@example.com", "role": "student",
				"is_profile_complete": true, "my_mentors": bson.A{"not-an-id"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection("users").InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConnectionsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	s, a := primitive.NewObjectID(), primitive.NewObjectID()
	_, err := db.Collection("connections").InsertOne(ctx, bson.M{
		"_id": s.Hex() + ":" + a.Hex(), "student_id": s, "alumnus_id": a,
		"state": "requested", "version": int64(1), "updated_at": time.Now(),
	})
	if err != nil {
		t.Errorf("valid pair insert failed: %v", err)
	}

	_, err = db.Collection("connections").InsertOne(ctx, bson.M{
		"_id": "x", "student_id": s, "alumnus_id": a, "state": "blocked", "version": int64(1),
	})
	if err == nil {
		t.Error("expected validation error for unknown state")
	}
}

func TestMessagesValidator_EmptyText(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("messages").InsertOne(ctx, bson.M{
		"conversation_id": primitive.NewObjectID(),
		"sender_id":       primitive.NewObjectID(),
		"text":            "",
		"created_at":      time.Now(),
	})
	if err == nil {
		t.Error("expected validation error for empty message text")
	}
}
