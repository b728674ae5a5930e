package mentorship

import (
	"context"
	"fmt"

	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.uber.org/zap"
)

// record returns the pair record. A pair that has no record yet takes its
// state from the user records, so data written in legacy mode is honored.
func (s *Service) record(ctx context.Context, p pair) (models.ConnectionPair, error) {
	rec, err := s.pairs.Get(ctx, p.student.ID, p.alumnus.ID)
	if err != nil {
		return models.ConnectionPair{}, fmt.Errorf("load pair record: %w", err)
	}
	if rec.Version == 0 {
		rec.State = derivedState(p)
	}
	return rec, nil
}

// setChanges returns the user-set writes that make both records match next.
func setChanges(rec models.ConnectionPair, next models.PairState) (student, alumnus userstore.SetChange) {
	switch next {
	case models.StateRequested:
		student = userstore.SetChange{Pull: ids{models.FieldMyMentors: rec.AlumnusID}}
		alumnus = userstore.SetChange{
			Pull: ids{models.FieldMyMentees: rec.StudentID},
			Add:  ids{models.FieldPendingRequests: rec.StudentID},
		}
	case models.StateConnected:
		student = userstore.SetChange{Add: ids{models.FieldMyMentors: rec.AlumnusID}}
		alumnus = userstore.SetChange{
			Pull: ids{models.FieldPendingRequests: rec.StudentID},
			Add:  ids{models.FieldMyMentees: rec.StudentID},
		}
	default:
		student = userstore.SetChange{Pull: ids{models.FieldMyMentors: rec.AlumnusID}}
		alumnus = userstore.SetChange{Pull: ids{
			models.FieldMyMentees:       rec.StudentID,
			models.FieldPendingRequests: rec.StudentID,
		}}
	}
	return student, alumnus
}

// SetConnectionState moves a pair from expected to next. In one transaction
// it compare-and-swaps the pair record on (state, version) and rewrites both
// users' sets to match next. A record that no longer matches returns
// ErrStateConflict and nothing is written.
func (s *Service) SetConnectionState(ctx context.Context, rec models.ConnectionPair, expected, next models.PairState) (models.ConnectionPair, error) {
	if rec.State != expected {
		return models.ConnectionPair{}, ErrStateConflict
	}
	studentChange, alumnusChange := setChanges(rec, next)

	var out models.ConnectionPair
	err := s.tx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.pairs.CompareAndSwap(ctx, rec, next)
		if err != nil {
			return err
		}
		if _, err := s.users.UpdateSets(ctx, rec.AlumnusID, alumnusChange); err != nil {
			return fmt.Errorf("update alumnus sets: %w", err)
		}
		if _, err := s.users.UpdateSets(ctx, rec.StudentID, studentChange); err != nil {
			return fmt.Errorf("update student sets: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Info("connection state change failed",
			zap.String("pair", rec.Key),
			zap.String("from", string(expected)),
			zap.String("to", string(next)),
			zap.Error(err))
		return models.ConnectionPair{}, err
	}
	return out, nil
}

func (s *Service) transition(ctx context.Context, rec models.ConnectionPair, next models.PairState) (Outcome, error) {
	out, err := s.SetConnectionState(ctx, rec, rec.State, next)
	if err != nil {
		return Outcome{}, err
	}
	return changed(out.State), nil
}

// setsMatch reports whether both users' sets agree exactly with state.
func setsMatch(p pair, state models.PairState) bool {
	mentor := p.student.HasMentor(p.alumnus.ID)
	mentee := p.alumnus.HasMentee(p.student.ID)
	pending := p.alumnus.HasPendingRequest(p.student.ID)
	switch state {
	case models.StateConnected:
		return mentor && mentee && !pending
	case models.StateRequested:
		return pending && !mentor && !mentee
	}
	return !mentor && !mentee && !pending
}

// settled loads the pair record and, when the user sets disagree with a
// stored record, rewrites them to match it. This finishes a transition whose
// set writes failed after the record moved, which can happen when the
// server runs without transactions. The rewrite goes through the same
// compare-and-swap, so a concurrent change wins.
func (s *Service) settled(ctx context.Context, p pair) (models.ConnectionPair, error) {
	rec, err := s.record(ctx, p)
	if err != nil {
		return models.ConnectionPair{}, err
	}
	if rec.Version == 0 || setsMatch(p, rec.State) {
		return rec, nil
	}
	s.log.Warn("user sets disagree with pair record; repairing",
		zap.String("pair", rec.Key),
		zap.String("state", string(rec.State)))
	return s.SetConnectionState(ctx, rec, rec.State, rec.State)
}

func (s *Service) symmetricRequest(ctx context.Context, p pair) (Outcome, error) {
	rec, err := s.settled(ctx, p)
	if err != nil {
		return Outcome{}, err
	}
	switch rec.State {
	case models.StateRequested:
		return notice(rec.State, NoticeAlreadyRequested), nil
	case models.StateConnected:
		return notice(rec.State, NoticeAlreadyConnected), nil
	}
	return s.transition(ctx, rec, models.StateRequested)
}

func (s *Service) symmetricAccept(ctx context.Context, p pair) (Outcome, error) {
	rec, err := s.settled(ctx, p)
	if err != nil {
		return Outcome{}, err
	}
	switch rec.State {
	case models.StateConnected:
		return notice(rec.State, NoticeAlreadyConnected), nil
	case models.StateNone:
		return notice(rec.State, NoticeNoPending), nil
	}
	return s.transition(ctx, rec, models.StateConnected)
}

func (s *Service) symmetricDecline(ctx context.Context, p pair) (Outcome, error) {
	rec, err := s.settled(ctx, p)
	if err != nil {
		return Outcome{}, err
	}
	switch rec.State {
	case models.StateNone:
		return notice(rec.State, NoticeNoPending), nil
	case models.StateConnected:
		return notice(rec.State, NoticeNoPending), nil
	}
	return s.transition(ctx, rec, models.StateNone)
}

func (s *Service) symmetricDirect(ctx context.Context, p pair) (Outcome, error) {
	rec, err := s.settled(ctx, p)
	if err != nil {
		return Outcome{}, err
	}
	if rec.State == models.StateConnected {
		return notice(rec.State, NoticeAlreadyConnected), nil
	}
	return s.transition(ctx, rec, models.StateConnected)
}

func (s *Service) symmetricRemove(ctx context.Context, p pair) (Outcome, error) {
	rec, err := s.settled(ctx, p)
	if err != nil {
		return Outcome{}, err
	}
	switch rec.State {
	case models.StateNone:
		return notice(rec.State, NoticeNotConnected), nil
	case models.StateRequested:
		return notice(rec.State, NoticeNotConnected), nil
	}
	return s.transition(ctx, rec, models.StateNone)
}
