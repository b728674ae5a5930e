package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/mentorconnect/internal/app/system/indexes"
	"github.com/dalemusser/mentorconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users": {
			"uniq_users_email",
			"idx_users_dir_role_complete_created",
			"idx_users_dir_working_field",
			"idx_users_dir_pass_out_university",
			"idx_users_dir_field_of_interest",
			"idx_users_dir_university",
		},
		"connections":   {"idx_connections_student_state", "idx_connections_alumnus_state"},
		"conversations": {"uniq_conversations_pair_key", "idx_conversations_participants_last"},
		"messages":      {"idx_messages_conversation_created"},
		"oauth_states":  {"idx_oauth_state", "idx_oauth_ttl"},
		"login_records": {"idx_login_records_user_created", "idx_login_records_created"},
	}
	for coll, names := range expected {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s", name, coll)
			}
		}
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "a@b.co"}); err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "a@b.co"}); err == nil {
		t.Error("expected duplicate key error for unique index on users.email")
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as uniq_conversations_pair_key under another name.
	_, err := db.Collection("conversations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pair_key", Value: 1}},
	})
	if err != nil {
		t.Fatalf("create legacy index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	got := indexNames(t, ctx, db, "conversations")
	if !got["uniq_conversations_pair_key"] {
		t.Error("expected uniq_conversations_pair_key after reconcile")
	}
	if got["pair_key_1"] {
		t.Error("expected the old non-unique index to be dropped")
	}
}
