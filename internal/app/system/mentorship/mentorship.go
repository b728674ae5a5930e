// Package mentorship runs the connection workflow between students and
// alumni: requests, accept, decline, direct connect, and removal.
//
// Two modes are supported. Symmetric mode (the default) guards every change
// with a versioned pair record and rewrites both users' sets in one
// transaction. Legacy mode reproduces the historical one-sided writes: direct
// connect and removal touch a single user record, and accept issues two
// independent writes with no compensation.
package mentorship

import (
	"context"
	"errors"
	"fmt"

	connectionstore "github.com/dalemusser/mentorconnect/internal/app/store/connections"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/txn"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Mode selects how connection changes are written.
type Mode string

const (
	ModeSymmetric Mode = "symmetric"
	ModeLegacy    Mode = "legacy"
)

// ParseMode maps a config value to a Mode. Empty means symmetric.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeSymmetric:
		return ModeSymmetric, nil
	case ModeLegacy:
		return ModeLegacy, nil
	}
	return "", fmt.Errorf("connection_mode must be %q or %q, got %q", ModeSymmetric, ModeLegacy, s)
}

var (
	// ErrRoleMismatch is returned when an id does not hold the role its
	// position in the pair requires.
	ErrRoleMismatch = errors.New("user role does not match the action")
	// ErrUserNotFound is returned when either user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrProfileIncomplete is returned when either user has not finished
	// profile setup.
	ErrProfileIncomplete = errors.New("profile setup is not complete")
	// ErrPartialWrite is returned by legacy accept when the alumnus write
	// fails after the student write succeeded. The request stays pending,
	// so accepting again completes the pair.
	ErrPartialWrite = errors.New("partial write")
	// ErrStateConflict is returned when the pair changed between read and
	// write.
	ErrStateConflict = connectionstore.ErrStateConflict
)

// Notices returned with Changed=false.
const (
	NoticeAlreadyRequested = "request already sent"
	NoticeAlreadyConnected = "already connected"
	NoticeNoPending        = "no pending request"
	NoticeNotConnected     = "not connected"
)

// Outcome reports the result of an action. A precondition that does not
// hold is not an error: Changed is false and Notice says why.
type Outcome struct {
	State   models.PairState `json:"state"`
	Changed bool             `json:"changed"`
	Notice  string           `json:"notice,omitempty"`
}

func changed(s models.PairState) Outcome { return Outcome{State: s, Changed: true} }
func notice(s models.PairState, n string) Outcome { return Outcome{State: s, Notice: n} }

// UserStore is the subset of the users store the workflow needs.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateSets(ctx context.Context, id primitive.ObjectID, change userstore.SetChange) (bool, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// PairStore holds the versioned pair records used in symmetric mode.
type PairStore interface {
	Get(ctx context.Context, studentID, alumnusID primitive.ObjectID) (models.ConnectionPair, error)
	CompareAndSwap(ctx context.Context, cur models.ConnectionPair, next models.PairState) (models.ConnectionPair, error)
}

// TxRunner runs fn as one unit of work.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// MongoTx returns a TxRunner backed by txn.Run on db.
func MongoTx(db *mongo.Database, log *zap.Logger) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return txn.Run(ctx, db, log, fn)
	}
}

// Service runs connection actions.
type Service struct {
	mode  Mode
	users UserStore
	pairs PairStore
	tx    TxRunner
	log   *zap.Logger
}

// Config wires a Service.
type Config struct {
	Mode  Mode
	Users UserStore
	Pairs PairStore
	Tx    TxRunner
	Log   *zap.Logger
}

// New returns a Service. A nil Tx runs callbacks directly.
func New(cfg Config) *Service {
	s := &Service{
		mode:  cfg.Mode,
		users: cfg.Users,
		pairs: cfg.Pairs,
		tx:    cfg.Tx,
		log:   cfg.Log,
	}
	if s.mode == "" {
		s.mode = ModeSymmetric
	}
	if s.tx == nil {
		s.tx = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Mode reports the configured mode.
func (s *Service) Mode() Mode { return s.mode }

// pair is a loaded student and alumnus.
type pair struct {
	student *models.User
	alumnus *models.User
}

func (s *Service) getUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id.Hex(), err)
	}
	return u, nil
}

// load reads both users and checks roles and profile completion.
func (s *Service) load(ctx context.Context, studentID, alumnusID primitive.ObjectID) (pair, error) {
	st, err := s.getUser(ctx, studentID)
	if err != nil {
		return pair{}, err
	}
	al, err := s.getUser(ctx, alumnusID)
	if err != nil {
		return pair{}, err
	}
	if !st.IsStudent() || !al.IsAlumni() {
		return pair{}, ErrRoleMismatch
	}
	if !st.IsProfileComplete || !al.IsProfileComplete {
		return pair{}, ErrProfileIncomplete
	}
	return pair{student: st, alumnus: al}, nil
}

// derivedState reads a pair's state from the user records. Either side's
// mutual reference counts as connected.
func derivedState(p pair) models.PairState {
	switch {
	case p.alumnus.HasMentee(p.student.ID) || p.student.HasMentor(p.alumnus.ID):
		return models.StateConnected
	case p.alumnus.HasPendingRequest(p.student.ID):
		return models.StateRequested
	}
	return models.StateNone
}

func (s *Service) observe(action string, out Outcome, err error) {
	result := "changed"
	switch {
	case errors.Is(err, ErrStateConflict):
		result = "conflict"
	case err != nil:
		result = "error"
	case !out.Changed:
		result = "notice"
	}
	metrics.ConnectionActions.WithLabelValues(action, result).Inc()
}

// RequestConnection records a student's request to an alumnus.
func (s *Service) RequestConnection(ctx context.Context, studentID, alumnusID primitive.ObjectID) (out Outcome, err error) {
	defer func() { s.observe("request", out, err) }()
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return Outcome{}, err
	}
	if s.mode == ModeLegacy {
		return s.legacyRequest(ctx, p)
	}
	return s.symmetricRequest(ctx, p)
}

// AcceptRequest connects a pending student to the alumnus.
func (s *Service) AcceptRequest(ctx context.Context, alumnusID, studentID primitive.ObjectID) (out Outcome, err error) {
	defer func() { s.observe("accept", out, err) }()
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return Outcome{}, err
	}
	if s.mode == ModeLegacy {
		return s.legacyAccept(ctx, p)
	}
	return s.symmetricAccept(ctx, p)
}

// DeclineRequest drops a pending request.
func (s *Service) DeclineRequest(ctx context.Context, alumnusID, studentID primitive.ObjectID) (out Outcome, err error) {
	defer func() { s.observe("decline", out, err) }()
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return Outcome{}, err
	}
	if s.mode == ModeLegacy {
		return s.legacyDecline(ctx, p)
	}
	return s.symmetricDecline(ctx, p)
}

// ConnectDirect connects an alumnus to a student without a request.
func (s *Service) ConnectDirect(ctx context.Context, alumnusID, studentID primitive.ObjectID) (out Outcome, err error) {
	defer func() { s.observe("direct", out, err) }()
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return Outcome{}, err
	}
	if s.mode == ModeLegacy {
		return s.legacyDirect(ctx, p)
	}
	return s.symmetricDirect(ctx, p)
}

// RemoveConnection ends the viewer's connection with other.
func (s *Service) RemoveConnection(ctx context.Context, viewerID primitive.ObjectID, viewerRole string, otherID primitive.ObjectID) (out Outcome, err error) {
	defer func() { s.observe("remove", out, err) }()
	studentID, alumnusID := viewerID, otherID
	switch viewerRole {
	case models.RoleStudent:
	case models.RoleAlumni:
		studentID, alumnusID = otherID, viewerID
	default:
		return Outcome{}, ErrRoleMismatch
	}
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return Outcome{}, err
	}
	if s.mode == ModeLegacy {
		return s.legacyRemove(ctx, p, viewerRole)
	}
	return s.symmetricRemove(ctx, p)
}

// PairState returns the current state of a pair. Legacy mode derives it from
// the user records; symmetric mode reads the pair record.
func (s *Service) PairState(ctx context.Context, studentID, alumnusID primitive.ObjectID) (models.PairState, error) {
	p, err := s.load(ctx, studentID, alumnusID)
	if err != nil {
		return "", err
	}
	if s.mode == ModeLegacy {
		return derivedState(p), nil
	}
	rec, err := s.record(ctx, p)
	if err != nil {
		return "", err
	}
	return rec.State, nil
}
