package mentorship

import (
	"context"
	"fmt"

	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ids = map[string]primitive.ObjectID

func (s *Service) legacyRequest(ctx context.Context, p pair) (Outcome, error) {
	switch st := derivedState(p); st {
	case models.StateRequested:
		return notice(st, NoticeAlreadyRequested), nil
	case models.StateConnected:
		return notice(st, NoticeAlreadyConnected), nil
	}
	if _, err := s.users.UpdateSets(ctx, p.alumnus.ID, userstore.SetChange{
		Add: ids{models.FieldPendingRequests: p.student.ID},
	}); err != nil {
		return Outcome{}, fmt.Errorf("add pending request: %w", err)
	}
	return changed(models.StateRequested), nil
}

// legacyAccept requires a pending request and issues two independent
// writes: the student gains the mentor, then the alumnus swaps the pending
// request for a mentee. The pending entry is cleared last, so when the
// alumnus write fails the request is still there and accepting again
// finishes the pair. ErrPartialWrite reports that case.
func (s *Service) legacyAccept(ctx context.Context, p pair) (Outcome, error) {
	if !p.alumnus.HasPendingRequest(p.student.ID) {
		return notice(derivedState(p), NoticeNoPending), nil
	}
	if _, err := s.users.UpdateSets(ctx, p.student.ID, userstore.SetChange{
		Add: ids{models.FieldMyMentors: p.alumnus.ID},
	}); err != nil {
		return Outcome{}, fmt.Errorf("accept on student: %w", err)
	}
	if _, err := s.users.UpdateSets(ctx, p.alumnus.ID, userstore.SetChange{
		Pull: ids{models.FieldPendingRequests: p.student.ID},
		Add:  ids{models.FieldMyMentees: p.student.ID},
	}); err != nil {
		s.log.Error("accept left request pending after student write",
			zap.String("student_id", p.student.ID.Hex()),
			zap.String("alumnus_id", p.alumnus.ID.Hex()),
			zap.Error(err))
		return Outcome{State: models.StateConnected}, fmt.Errorf("%w: accept on alumnus: %w", ErrPartialWrite, err)
	}
	return changed(models.StateConnected), nil
}

func (s *Service) legacyDecline(ctx context.Context, p pair) (Outcome, error) {
	if !p.alumnus.HasPendingRequest(p.student.ID) {
		return notice(derivedState(p), NoticeNoPending), nil
	}
	if _, err := s.users.UpdateSets(ctx, p.alumnus.ID, userstore.SetChange{
		Pull: ids{models.FieldPendingRequests: p.student.ID},
	}); err != nil {
		return Outcome{}, fmt.Errorf("decline: %w", err)
	}
	p.alumnus.PendingMenteeRequests = removeID(p.alumnus.PendingMenteeRequests, p.student.ID)
	return changed(derivedState(p)), nil
}

// legacyDirect re-reads the alumnus right before writing and adds the
// student to the alumnus's mentees only.
func (s *Service) legacyDirect(ctx context.Context, p pair) (Outcome, error) {
	al, err := s.getUser(ctx, p.alumnus.ID)
	if err != nil {
		return Outcome{}, err
	}
	if al.HasMentee(p.student.ID) {
		return notice(models.StateConnected, NoticeAlreadyConnected), nil
	}
	if _, err := s.users.UpdateSets(ctx, al.ID, userstore.SetChange{
		Add: ids{models.FieldMyMentees: p.student.ID},
	}); err != nil {
		return Outcome{}, fmt.Errorf("direct connect: %w", err)
	}
	return changed(models.StateConnected), nil
}

// legacyRemove pulls the other id from the viewer's own set only.
func (s *Service) legacyRemove(ctx context.Context, p pair, viewerRole string) (Outcome, error) {
	viewer, otherID := p.student, p.alumnus.ID
	connected := p.student.HasMentor(otherID)
	if viewerRole == models.RoleAlumni {
		viewer, otherID = p.alumnus, p.student.ID
		connected = p.alumnus.HasMentee(otherID)
	}
	if !connected {
		return notice(derivedState(p), NoticeNotConnected), nil
	}
	field := models.ConnectionField(viewer.Role)
	if _, err := s.users.UpdateSets(ctx, viewer.ID, userstore.SetChange{
		Pull: ids{field: otherID},
	}); err != nil {
		return Outcome{}, fmt.Errorf("remove connection: %w", err)
	}
	if viewerRole == models.RoleAlumni {
		p.alumnus.MyMentees = removeID(p.alumnus.MyMentees, otherID)
	} else {
		p.student.MyMentors = removeID(p.student.MyMentors, otherID)
	}
	return changed(derivedState(p)), nil
}

func removeID(list []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := list[:0:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
