package messages

import (
	"testing"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func encodeCursor(tag string) string {
	return paging.EncodeTimeCursor(time.Now().UTC(), primitive.NewObjectID(), tag)
}

func testSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}
