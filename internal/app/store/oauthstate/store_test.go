package oauthstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/mentorconnect/internal/testutil"
)

func TestStore_SaveValidate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "state-1", "alumni", "/profile", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	st, ok, err := store.Validate(ctx, "state-1")
	if err != nil || !ok {
		t.Fatalf("Validate = %v, %v", ok, err)
	}
	if st.Role != "alumni" || st.ReturnURL != "/profile" {
		t.Errorf("state = %+v", st)
	}

	// One-time use.
	if _, ok, err := store.Validate(ctx, "state-1"); err != nil || ok {
		t.Errorf("second Validate = %v, %v; want false", ok, err)
	}
}

func TestStore_Validate_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "old", "", "", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := store.Validate(ctx, "old"); err != nil || ok {
		t.Errorf("expired Validate = %v, %v; want false", ok, err)
	}

	n, err := store.CleanupExpired(ctx)
	if err != nil || n != 1 {
		t.Errorf("CleanupExpired = %d, %v; want 1", n, err)
	}
}

func TestStore_Validate_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, ok, err := store.Validate(ctx, "nope"); err != nil || ok {
		t.Errorf("Validate = %v, %v", ok, err)
	}
}
