package mentorship

import (
	"context"
	"errors"
	"sync"

	connectionstore "github.com/dalemusser/mentorconnect/internal/app/store/connections"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUsers is an in-memory UserStore. failOn makes UpdateSets fail for
// that id.
type fakeUsers struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]*models.User
	failOn map[primitive.ObjectID]error
	writes int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:   map[primitive.ObjectID]*models.User{},
		failOn: map[primitive.ObjectID]error{},
	}
}

func (f *fakeUsers) add(role string, complete bool) *models.User {
	u := &models.User{ID: primitive.NewObjectID(), Role: role, FullName: role, IsProfileComplete: complete}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	cp := *u
	cp.MyMentors = append([]primitive.ObjectID(nil), u.MyMentors...)
	cp.MyMentees = append([]primitive.ObjectID(nil), u.MyMentees...)
	cp.PendingMenteeRequests = append([]primitive.ObjectID(nil), u.PendingMenteeRequests...)
	return &cp, nil
}

func (f *fakeUsers) get(id primitive.ObjectID) *models.User {
	u, _ := f.GetByID(context.Background(), id)
	return u
}

func field(u *models.User, name string) *[]primitive.ObjectID {
	switch name {
	case models.FieldMyMentors:
		return &u.MyMentors
	case models.FieldMyMentees:
		return &u.MyMentees
	case models.FieldPendingRequests:
		return &u.PendingMenteeRequests
	}
	panic("unknown set field " + name)
}

func (f *fakeUsers) UpdateSets(_ context.Context, id primitive.ObjectID, c userstore.SetChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return false, err
	}
	u, ok := f.byID[id]
	if !ok {
		return false, userstore.ErrNotFound
	}
	f.writes++
	modified := false
	for name, v := range c.Pull {
		set := field(u, name)
		before := len(*set)
		*set = removeID(*set, v)
		modified = modified || len(*set) != before
	}
	for name, v := range c.Add {
		set := field(u, name)
		found := false
		for _, x := range *set {
			if x == v {
				found = true
			}
		}
		if !found {
			*set = append(*set, v)
			modified = true
		}
	}
	return modified, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// fakePairs is an in-memory PairStore with the same CAS rules as the Mongo
// store.
type fakePairs struct {
	mu   sync.Mutex
	recs map[string]models.ConnectionPair
	err  error
}

func newFakePairs() *fakePairs {
	return &fakePairs{recs: map[string]models.ConnectionPair{}}
}

func (f *fakePairs) Get(_ context.Context, s, a primitive.ObjectID) (models.ConnectionPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.ConnectionPair{}, f.err
	}
	if r, ok := f.recs[models.PairKey(s, a)]; ok {
		return r, nil
	}
	return models.NewPair(s, a), nil
}

func (f *fakePairs) CompareAndSwap(_ context.Context, cur models.ConnectionPair, next models.PairState) (models.ConnectionPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, exists := f.recs[cur.Key]
	if cur.Version == 0 {
		if exists {
			return models.ConnectionPair{}, connectionstore.ErrStateConflict
		}
	} else if !exists || stored.State != cur.State || stored.Version != cur.Version {
		return models.ConnectionPair{}, connectionstore.ErrStateConflict
	}
	out := cur
	out.State = next
	out.Version = cur.Version + 1
	f.recs[cur.Key] = out
	return out, nil
}

var errBoom = errors.New("store unavailable")
