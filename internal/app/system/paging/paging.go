// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Page size bounds shared by the directory and message history.
const (
	DirectoryPageSize = 9
	MessagePageSize   = 50
	MaxPageSize       = 50
)

// ClampPageSize returns n limited to [1, max], or def when n is not positive.
func ClampPageSize(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ParseLimit reads an integer query parameter and clamps it.
// Missing or invalid values yield def.
func ParseLimit(r *http.Request, key string, def, max int) int {
	s := query.Get(r, key)
	if s == "" {
		return ClampPageSize(def, def, max)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return ClampPageSize(def, def, max)
	}
	return ClampPageSize(n, def, max)
}

// LimitPlusOne returns pageSize+1 for look-ahead pagination
// (fetch one extra document to detect a following page).
func LimitPlusOne(pageSize int) int64 { return int64(pageSize + 1) }

// TrimPage trims rows fetched with LimitPlusOne to pageSize and reports
// whether another page exists.
func TrimPage[T any](rows *[]T, pageSize int) (hasMore bool) {
	if len(*rows) > pageSize {
		*rows = (*rows)[:pageSize]
		return true
	}
	return false
}

// TimeCursor is the decoded position of a newest-first keyset page: the
// created_at and _id of the last row served, plus a tag binding the cursor to
// the query that produced it.
type TimeCursor struct {
	At  time.Time
	ID  primitive.ObjectID
	Tag string
}

// EncodeTimeCursor builds an opaque cursor string.
func EncodeTimeCursor(at time.Time, id primitive.ObjectID, tag string) string {
	return wafflemongo.EncodeCursor(at.UTC().Format(time.RFC3339Nano)+"|"+tag, id)
}

// DecodeTimeCursor parses a cursor built by EncodeTimeCursor.
func DecodeTimeCursor(s string) (TimeCursor, bool) {
	c, ok := wafflemongo.DecodeCursor(s)
	if !ok || c.ID.IsZero() {
		return TimeCursor{}, false
	}
	ts, tag, _ := strings.Cut(c.CI, "|")
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return TimeCursor{}, false
	}
	return TimeCursor{At: at, ID: c.ID, Tag: tag}, true
}

// DescSort orders by field then _id, both descending.
func DescSort(field string) bson.D {
	return bson.D{{Key: field, Value: -1}, {Key: "_id", Value: -1}}
}

// DescWindow selects rows strictly after c in DescSort(field) order.
func DescWindow(field string, c TimeCursor) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{field: bson.M{"$lt": c.At}},
		bson.M{field: c.At, "_id": bson.M{"$lt": c.ID}},
	}}
}

// Reverse reverses a slice in place.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
