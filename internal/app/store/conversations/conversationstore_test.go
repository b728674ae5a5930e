package conversationstore_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	conversationstore "github.com/dalemusser/mentorconnect/internal/app/store/conversations"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/mentorconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_GetOrCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	store := conversationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	c1, created, err := store.GetOrCreate(ctx, a, b)
	if err != nil || !created {
		t.Fatalf("first GetOrCreate = %v, %v", created, err)
	}
	if !c1.HasParticipant(a) || !c1.HasParticipant(b) || len(c1.Participants) != 2 {
		t.Errorf("participants = %v", c1.Participants)
	}

	c2, created, err := store.GetOrCreate(ctx, b, a)
	if err != nil || created {
		t.Fatalf("second GetOrCreate = %v, %v", created, err)
	}
	if c2.ID != c1.ID {
		t.Errorf("reversed pair got a different conversation")
	}

	if _, _, err := store.GetOrCreate(ctx, a, a); !errors.Is(err, conversationstore.ErrSelf) {
		t.Errorf("self err = %v", err)
	}
}

func TestStore_TouchAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := conversationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := primitive.NewObjectID()
	older, _, err := store.GetOrCreate(ctx, me, primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}
	newer, _, err := store.GetOrCreate(ctx, me, primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.GetOrCreate(ctx, primitive.NewObjectID(), primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := store.Touch(ctx, models.Message{ConversationID: older.ID, SenderID: me, Text: "first", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	long := strings.Repeat("x", conversationstore.PreviewLen+20)
	got, err := store.Touch(ctx, models.Message{ConversationID: newer.ID, SenderID: me, Text: long, CreatedAt: now.Add(time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.LastMessage) != conversationstore.PreviewLen {
		t.Errorf("preview length = %d", len(got.LastMessage))
	}

	list, err := store.ListForUser(ctx, me, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d conversations, want 2", len(list))
	}
	if list[0].ID != newer.ID {
		t.Error("most recent conversation should be first")
	}

	if _, err := store.Touch(ctx, models.Message{ConversationID: primitive.NewObjectID(), Text: "x"}); !errors.Is(err, conversationstore.ErrNotFound) {
		t.Errorf("touch unknown err = %v", err)
	}
}
