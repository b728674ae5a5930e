package metricsstore

import (
	"context"

	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FetchPlatformCounts returns the platform totals exported as gauges.
// Intentionally tolerant: on error it returns 0 for that counter.
//
// Connection totals are read from the alumni side's sets, so they are
// correct in both connection modes.
func FetchPlatformCounts(ctx context.Context, db *mongo.Database) metrics.Counts {
	var out metrics.Counts
	users := db.Collection("users")

	// complete students
	if n, err := users.CountDocuments(ctx, bson.M{"role": models.RoleStudent, "is_profile_complete": true}); err == nil {
		out.Students = n
	}

	// complete alumni
	if n, err := users.CountDocuments(ctx, bson.M{"role": models.RoleAlumni, "is_profile_complete": true}); err == nil {
		out.Alumni = n
	}

	// incomplete profiles
	if n, err := users.CountDocuments(ctx, bson.M{"is_profile_complete": false}); err == nil {
		out.Incomplete = n
	}

	// mentee and pending set sizes
	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"role": models.RoleAlumni}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      nil,
			"mentees":  bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + models.FieldMyMentees, bson.A{}}}}},
			"requests": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + models.FieldPendingRequests, bson.A{}}}}},
		}}},
	}
	if cur, err := users.Aggregate(ctx, pipe); err == nil {
		var rows []struct {
			Mentees  int64 `bson:"mentees"`
			Requests int64 `bson:"requests"`
		}
		if cur.All(ctx, &rows) == nil && len(rows) == 1 {
			out.Connections = rows[0].Mentees
			out.Pending = rows[0].Requests
		}
	}

	// conversations
	if n, err := db.Collection("conversations").EstimatedDocumentCount(ctx); err == nil {
		out.Conversations = n
	}

	// messages
	if n, err := db.Collection("messages").EstimatedDocumentCount(ctx); err == nil {
		out.Messages = n
	}

	return out
}

// CountsFunc binds FetchPlatformCounts to db for metrics.NewPlatformCollector.
func CountsFunc(db *mongo.Database) metrics.CountsFunc {
	return func(ctx context.Context) metrics.Counts {
		return FetchPlatformCounts(ctx, db)
	}
}
