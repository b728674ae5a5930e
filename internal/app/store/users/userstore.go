package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// chunkSize bounds the $in list of a single FindByIDs query.
const chunkSize = 100

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Collection exposes the users collection to code that writes it inside a
// transaction alongside other collections.
func (s *Store) Collection() *mongo.Collection {
	return s.c
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrNameRequired is returned when a write would leave full_name blank.
	ErrNameRequired = errors.New("full_name is required")

	errBadRole = errors.New(`role must be "student"|"alumni"`)
	errBadAuth = errors.New(`auth_method must be "password"|"google"`)
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns ErrNotFound if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields. The
// record starts with is_profile_complete=false and empty connection sets.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.AuthMethod = normalize.AuthMethod(u.AuthMethod)
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthPassword
	}
	u.IsProfileComplete = false
	u.MyMentors, u.MyMentees, u.PendingMenteeRequests = nil, nil, nil

	if u.FullName == "" {
		return models.User{}, ErrNameRequired
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	switch u.AuthMethod {
	case models.AuthPassword, models.AuthGoogle:
	default:
		return models.User{}, errBadAuth
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileSetup holds the role-specific fields collected at profile setup.
// Fields that do not belong to the user's role are ignored.
type ProfileSetup struct {
	University      string
	FieldOfInterest string
	PursuingCourse  string

	PassOutUniversity string
	WorkingField      string
	Bio               string
}

func (p ProfileSetup) set(role string) bson.M {
	if role == models.RoleStudent {
		return bson.M{
			"university":        normalize.Field(p.University),
			"field_of_interest": normalize.Field(p.FieldOfInterest),
			"pursuing_course":   normalize.Field(p.PursuingCourse),
		}
	}
	return bson.M{
		"pass_out_university": normalize.Field(p.PassOutUniversity),
		"working_field":       normalize.Field(p.WorkingField),
		"bio":                 p.Bio,
	}
}

// CompleteProfile writes the role-specific fields and marks the profile
// complete. The write is a merge; fields outside the profile are untouched.
func (s *Store) CompleteProfile(ctx context.Context, id primitive.ObjectID, role string, p ProfileSetup) error {
	set := p.set(role)
	set["is_profile_complete"] = true
	set["updated_at"] = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "role": role}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate is a partial profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName *string

	University      *string
	FieldOfInterest *string
	PursuingCourse  *string

	PassOutUniversity *string
	WorkingField      *string
	Bio               *string
}

// UpdateProfile merges the non-nil fields of upd into the user. Fields of the
// other role are ignored. It reports whether anything was written.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, role string, upd ProfileUpdate) (bool, error) {
	set := bson.M{}
	if upd.FullName != nil {
		name := normalize.Name(*upd.FullName)
		if name == "" {
			return false, ErrNameRequired
		}
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = normalize.Field(*v)
		}
	}
	if role == models.RoleStudent {
		put("university", upd.University)
		put("field_of_interest", upd.FieldOfInterest)
		put("pursuing_course", upd.PursuingCourse)
	} else {
		put("pass_out_university", upd.PassOutUniversity)
		put("working_field", upd.WorkingField)
		if upd.Bio != nil {
			set["bio"] = *upd.Bio
		}
	}
	if len(set) == 0 {
		return false, nil
	}
	set["updated_at"] = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "role": role}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return true, nil
}

// SetChange is one update to a user's connection sets. Add and Pull map a
// set field (models.FieldMyMentors etc.) to the id to add or remove. A field
// may not appear in both maps.
type SetChange struct {
	Add  map[string]primitive.ObjectID
	Pull map[string]primitive.ObjectID
}

func (c SetChange) update(now time.Time) bson.M {
	upd := bson.M{"$set": bson.M{"updated_at": now}}
	if len(c.Add) > 0 {
		add := bson.M{}
		for f, id := range c.Add {
			add[f] = id
		}
		upd["$addToSet"] = add
	}
	if len(c.Pull) > 0 {
		pull := bson.M{}
		for f, id := range c.Pull {
			pull[f] = id
		}
		upd["$pull"] = pull
	}
	return upd
}

// UpdateSets applies change to user id in a single write. Set operations are
// idempotent, so re-applying a change is harmless. It reports whether the
// document was modified.
func (s *Store) UpdateSets(ctx context.Context, id primitive.ObjectID, change SetChange) (bool, error) {
	for f := range change.Add {
		if _, dup := change.Pull[f]; dup {
			return false, fmt.Errorf("set field %q both added and pulled", f)
		}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, change.update(time.Now().UTC()))
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

// FindByIDs loads the users with the given ids, ordered by name. Ids are
// queried in chunks so a large set never produces an oversized $in.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids[start:end]}}, opts)
		if err != nil {
			return nil, err
		}
		var batch []models.User
		if err := cur.All(ctx, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	if len(ids) > chunkSize {
		sortByName(out)
	}
	return out, nil
}

// Count returns the number of users matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
