package directory_test

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/store/queries/directory"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/mentorconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memFinder applies Criteria to an in-memory user list.
type memFinder struct {
	users []models.User
	err   error
	calls int
}

func (m *memFinder) FindUsers(_ context.Context, c directory.Criteria) ([]models.User, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var out []models.User
	for _, u := range m.users {
		if u.Role != c.Role || !u.IsProfileComplete || u.ID == c.ExcludeID {
			continue
		}
		if c.Field != "" && u.Field() != c.Field {
			continue
		}
		if c.University != "" && u.School() != c.University {
			continue
		}
		if c.After != nil {
			if u.CreatedAt.After(c.After.At) {
				continue
			}
			if u.CreatedAt.Equal(c.After.At) && u.ID.Hex() >= c.After.ID.Hex() {
				continue
			}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if int64(len(out)) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

func alumni(n int, field string) []models.User {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.User{
			ID:                primitive.NewObjectID(),
			FullName:          "Alum",
			Role:              models.RoleAlumni,
			IsProfileComplete: true,
			WorkingField:      field,
			PassOutUniversity: "IIT",
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestFetchPage_PagesThroughAll(t *testing.T) {
	f := &memFinder{users: alumni(20, "AI")}
	e := directory.NewEngine(f)
	ctx := context.Background()

	seen := map[primitive.ObjectID]bool{}
	var sizes []int
	var hasMore []bool
	cursor := ""
	for i := 0; i < 5; i++ {
		p, err := e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni, Cursor: cursor})
		if err != nil {
			t.Fatalf("FetchPage %d: %v", i, err)
		}
		sizes = append(sizes, len(p.Users))
		hasMore = append(hasMore, p.HasMore)
		for _, u := range p.Users {
			if seen[u.ID] {
				t.Fatalf("user %s served twice", u.ID.Hex())
			}
			seen[u.ID] = true
		}
		if !p.HasMore {
			if p.NextCursor != "" {
				t.Error("last page should have no cursor")
			}
			break
		}
		cursor = p.NextCursor
	}

	if want := []int{9, 9, 2}; !equalInts(sizes, want) {
		t.Errorf("page sizes = %v, want %v", sizes, want)
	}
	if want := []bool{true, true, false}; !equalBools(hasMore, want) {
		t.Errorf("hasMore = %v, want %v", hasMore, want)
	}
	if len(seen) != 20 {
		t.Errorf("served %d users, want 20", len(seen))
	}
}

func TestFetchPage_ExactMultipleEndsWithoutEmptyPage(t *testing.T) {
	f := &memFinder{users: alumni(9, "AI")}
	e := directory.NewEngine(f)

	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleAlumni})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Users) != 9 || p.HasMore {
		t.Errorf("got %d users, hasMore=%v; want 9, false", len(p.Users), p.HasMore)
	}
}

func TestFetchPage_NewestFirst(t *testing.T) {
	f := &memFinder{users: alumni(3, "AI")}
	e := directory.NewEngine(f)

	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleAlumni})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(p.Users); i++ {
		if p.Users[i].CreatedAt.After(p.Users[i-1].CreatedAt) {
			t.Fatalf("page not newest first: %v", p.Users)
		}
	}
}

func TestFetchPage_TiesBrokenByID(t *testing.T) {
	users := alumni(5, "AI")
	for i := range users {
		users[i].CreatedAt = users[0].CreatedAt
	}
	f := &memFinder{users: users}
	e := directory.NewEngine(f)
	ctx := context.Background()

	p1, err := e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni, PageSize: 2})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni, PageSize: 2, Cursor: p1.NextCursor})
	if err != nil {
		t.Fatal(err)
	}
	p3, err := e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni, PageSize: 2, Cursor: p2.NextCursor})
	if err != nil {
		t.Fatal(err)
	}
	total := len(p1.Users) + len(p2.Users) + len(p3.Users)
	if total != 5 || p3.HasMore {
		t.Errorf("total = %d, last hasMore = %v; want 5, false", total, p3.HasMore)
	}
}

func TestFetchPage_Filters(t *testing.T) {
	users := append(alumni(4, "AI"), alumni(3, "Finance")...)
	users = append(users, models.User{
		ID: primitive.NewObjectID(), Role: models.RoleAlumni, WorkingField: "AI", CreatedAt: time.Now(),
	})
	users = append(users, models.User{
		ID: primitive.NewObjectID(), Role: models.RoleStudent, IsProfileComplete: true, FieldOfInterest: "AI", CreatedAt: time.Now(),
	})
	f := &memFinder{users: users}
	e := directory.NewEngine(f)

	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleAlumni, Field: " AI "})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Users) != 4 {
		t.Errorf("got %d users, want 4 complete AI alumni", len(p.Users))
	}
	for _, u := range p.Users {
		if u.Role != models.RoleAlumni || u.WorkingField != "AI" || !u.IsProfileComplete {
			t.Errorf("unexpected user in page: %+v", u)
		}
	}
}

func TestFetchPage_CursorFilterMismatch(t *testing.T) {
	f := &memFinder{users: alumni(12, "AI")}
	e := directory.NewEngine(f)
	ctx := context.Background()

	p, err := e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni})
	if err != nil || p.NextCursor == "" {
		t.Fatalf("first page: %v, cursor %q", err, p.NextCursor)
	}
	calls := f.calls

	_, err = e.FetchPage(ctx, directory.Query{Role: models.RoleAlumni, Field: "AI", Cursor: p.NextCursor})
	if !errors.Is(err, directory.ErrCursorFilterMismatch) {
		t.Errorf("err = %v, want ErrCursorFilterMismatch", err)
	}
	if f.calls != calls {
		t.Error("finder should not be called for a mismatched cursor")
	}
}

func TestFetchPage_Validation(t *testing.T) {
	e := directory.NewEngine(&memFinder{})
	ctx := context.Background()

	if _, err := e.FetchPage(ctx, directory.Query{Role: "admin"}); !errors.Is(err, directory.ErrBadRole) {
		t.Errorf("bad role err = %v", err)
	}
	if _, err := e.FetchPage(ctx, directory.Query{Role: models.RoleStudent, Cursor: "garbage"}); !errors.Is(err, directory.ErrBadCursor) {
		t.Errorf("bad cursor err = %v", err)
	}
}

func TestFetchPage_EmptyIsNotError(t *testing.T) {
	e := directory.NewEngine(&memFinder{})
	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if p.Users == nil || len(p.Users) != 0 || p.HasMore {
		t.Errorf("page = %+v, want empty non-nil slice and hasMore=false", p)
	}
}

func TestFetchPage_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	e := directory.NewEngine(&memFinder{err: boom})
	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleAlumni})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
	if p.HasMore {
		t.Error("HasMore must be false on error")
	}
}

func TestFetchPage_PageSizeClamped(t *testing.T) {
	f := &memFinder{users: alumni(60, "AI")}
	e := directory.NewEngine(f)

	p, err := e.FetchPage(context.Background(), directory.Query{Role: models.RoleAlumni, PageSize: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Users) != 50 {
		t.Errorf("got %d users, want clamp to 50", len(p.Users))
	}
}

func TestFilter_KeysByRole(t *testing.T) {
	f := directory.Filter(directory.Criteria{Role: models.RoleStudent, Field: "AI", University: "IIT"})
	if f["field_of_interest"] != "AI" || f["university"] != "IIT" {
		t.Errorf("student filter = %v", f)
	}
	f = directory.Filter(directory.Criteria{Role: models.RoleAlumni, Field: "AI", University: "IIT"})
	if f["working_field"] != "AI" || f["pass_out_university"] != "IIT" {
		t.Errorf("alumni filter = %v", f)
	}
	if f["is_profile_complete"] != true {
		t.Error("filter must require a complete profile")
	}
}

func TestMongoFinder_Pages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureIndexes(t, db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 11; i++ {
		fixtures.CreateAlumnus(ctx, "Alum", primitive.NewObjectID().Hex()+"@example.com", "IIT Delhi", "AI")
	}
	fixtures.CreateAlumnus(ctx, "Other", "other@example.com", "IIT Delhi", "Law")
	fixtures.CreateUser(ctx, "Incomplete", "inc@example.com", models.RoleAlumni)
	viewer := fixtures.CreateStudent(ctx, "Viewer", "viewer@example.com", "IIT Delhi", "AI")

	e := directory.NewEngine(directory.NewMongoFinder(db))
	q := directory.Query{Role: models.RoleAlumni, Field: "AI", ExcludeID: viewer.ID}

	p1, err := e.FetchPage(ctx, q)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(p1.Users) != 9 || !p1.HasMore {
		t.Fatalf("page 1: %d users, hasMore=%v", len(p1.Users), p1.HasMore)
	}
	if p1.Users[0].PasswordHash != nil {
		t.Error("password hash must be projected out")
	}

	q.Cursor = p1.NextCursor
	p2, err := e.FetchPage(ctx, q)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if len(p2.Users) != 2 || p2.HasMore {
		t.Errorf("page 2: %d users, hasMore=%v; want 2, false", len(p2.Users), p2.HasMore)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalBools(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
