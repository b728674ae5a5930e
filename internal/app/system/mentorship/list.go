package mentorship

import (
	"context"
	"fmt"

	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connections is a viewer's connection list. Students get Mentors; alumni
// get Mentees and Pending. Lists that do not apply to the role are null.
type Connections struct {
	Mentors []models.PublicProfile `json:"mentors"`
	Mentees []models.PublicProfile `json:"mentees"`
	Pending []models.PublicProfile `json:"pending"`
}

// ListConnections returns the viewer's connections from the viewer's own
// sets.
func (s *Service) ListConnections(ctx context.Context, viewerID primitive.ObjectID) (Connections, error) {
	viewer, err := s.getUser(ctx, viewerID)
	if err != nil {
		return Connections{}, err
	}

	fetch := func(ids []primitive.ObjectID) ([]models.PublicProfile, error) {
		if len(ids) == 0 {
			return []models.PublicProfile{}, nil
		}
		us, err := s.users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("list connections: %w", err)
		}
		return models.PublicProfiles(us), nil
	}

	var out Connections
	if viewer.IsStudent() {
		out.Mentors, err = fetch(viewer.MyMentors)
		return out, err
	}
	if out.Mentees, err = fetch(viewer.MyMentees); err != nil {
		return Connections{}, err
	}
	if out.Pending, err = fetch(viewer.PendingMenteeRequests); err != nil {
		return Connections{}, err
	}
	return out, nil
}
