// Package directory pages through profile-complete users of one role,
// newest first, with optional field and university filters.
//
// Pages use keyset pagination on (created_at, _id) and fetch one look-ahead
// row, so HasMore is exact: a page shorter than PageSize, or one with
// HasMore=false, is the end of the listing. Cursors carry a fingerprint of
// the filter set they were issued under and are rejected under any other.
package directory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrBadRole is returned when the target role is not student or alumni.
	ErrBadRole = errors.New(`directory role must be "student"|"alumni"`)
	// ErrBadCursor is returned for a cursor that cannot be decoded.
	ErrBadCursor = errors.New("malformed directory cursor")
	// ErrCursorFilterMismatch is returned when a cursor is presented with a
	// different filter set than the one it was issued under. Callers restart
	// from the first page.
	ErrCursorFilterMismatch = errors.New("cursor does not match the current filters")
)

// Query selects one directory page.
type Query struct {
	Role       string
	Field      string
	University string
	PageSize   int
	Cursor     string

	// ExcludeID, when set, is left out of the listing (the viewer).
	ExcludeID primitive.ObjectID
}

// Page is one directory page.
type Page struct {
	Users      []models.User
	NextCursor string
	HasMore    bool
}

// Criteria is a normalized query handed to a Finder.
type Criteria struct {
	Role       string
	Field      string
	University string
	ExcludeID  primitive.ObjectID
	After      *paging.TimeCursor
	Limit      int64
}

// Finder runs a directory query against a user store.
type Finder interface {
	FindUsers(ctx context.Context, c Criteria) ([]models.User, error)
}

// Engine serves directory pages from a Finder.
type Engine struct {
	finder Finder
	now    func() time.Time
}

// NewEngine returns an Engine backed by f.
func NewEngine(f Finder) *Engine {
	return &Engine{finder: f, now: time.Now}
}

// FieldKeys returns the bson fields that the field and university filters
// apply to for a target role.
func FieldKeys(role string) (field, university string) {
	if role == models.RoleAlumni {
		return "working_field", "pass_out_university"
	}
	return "field_of_interest", "university"
}

// Fingerprint identifies a filter set. It is embedded in cursors.
func Fingerprint(role, field, university string) string {
	sum := sha256.Sum256([]byte(role + "\x00" + field + "\x00" + university))
	return hex.EncodeToString(sum[:6])
}

// FetchPage returns the page of q. On a store error the returned page is
// empty with HasMore=false and the error is returned unretried.
func (e *Engine) FetchPage(ctx context.Context, q Query) (Page, error) {
	start := e.now()
	role := normalize.Role(q.Role)
	if !models.IsValidRole(role) {
		return Page{}, ErrBadRole
	}

	c := Criteria{
		Role:       role,
		Field:      normalize.Field(q.Field),
		University: normalize.Field(q.University),
		ExcludeID:  q.ExcludeID,
	}
	size := paging.ClampPageSize(q.PageSize, paging.DirectoryPageSize, paging.MaxPageSize)
	c.Limit = paging.LimitPlusOne(size)
	tag := Fingerprint(c.Role, c.Field, c.University)

	if q.Cursor != "" {
		cur, ok := paging.DecodeTimeCursor(q.Cursor)
		if !ok {
			return Page{}, ErrBadCursor
		}
		if cur.Tag != tag {
			return Page{}, ErrCursorFilterMismatch
		}
		c.After = &cur
	}

	rows, err := e.finder.FindUsers(ctx, c)
	metrics.ObserveSince(metrics.DirectoryDuration, start)
	if err != nil {
		metrics.DirectoryQueries.WithLabelValues(role, "error").Inc()
		return Page{}, fmt.Errorf("directory query: %w", err)
	}
	metrics.DirectoryQueries.WithLabelValues(role, "ok").Inc()

	page := Page{Users: rows}
	page.HasMore = paging.TrimPage(&page.Users, size)
	if page.HasMore {
		last := page.Users[len(page.Users)-1]
		page.NextCursor = paging.EncodeTimeCursor(last.CreatedAt, last.ID, tag)
	}
	if page.Users == nil {
		page.Users = []models.User{}
	}
	return page, nil
}

// Filter builds the Mongo filter for c.
func Filter(c Criteria) bson.M {
	f := bson.M{
		"role":                c.Role,
		"is_profile_complete": true,
	}
	fieldKey, uniKey := FieldKeys(c.Role)
	if c.Field != "" {
		f[fieldKey] = c.Field
	}
	if c.University != "" {
		f[uniKey] = c.University
	}
	if !c.ExcludeID.IsZero() {
		f["_id"] = bson.M{"$ne": c.ExcludeID}
	}
	if c.After != nil {
		f["$and"] = bson.A{paging.DescWindow("created_at", *c.After)}
	}
	return f
}

// MongoFinder reads the users collection.
type MongoFinder struct {
	c *mongo.Collection
}

// NewMongoFinder returns a Finder over db's users collection.
func NewMongoFinder(db *mongo.Database) *MongoFinder {
	return &MongoFinder{c: db.Collection("users")}
}

// FindUsers implements Finder.
func (m *MongoFinder) FindUsers(ctx context.Context, c Criteria) ([]models.User, error) {
	opts := options.Find().
		SetSort(paging.DescSort("created_at")).
		SetLimit(c.Limit).
		SetProjection(bson.M{
			"password_hash":           0,
			"my_mentors":              0,
			"my_mentees":              0,
			"pending_mentee_requests": 0,
		})

	cur, err := m.c.Find(ctx, Filter(c), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
