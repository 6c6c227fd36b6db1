package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leganyst/easycars/internal/model"
)

// ActivityRecorder receives audit entries. Implementations must not block
// and must not fail the caller (activity.Sink).
type ActivityRecorder interface {
	Record(ctx context.Context, entry model.ActivityLog)
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, model.ActivityLog) {}

func recorderOrNop(r ActivityRecorder) ActivityRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func entry(userID uuid.UUID, action string, rt model.ResourceType, resourceID uuid.UUID, details map[string]any) model.ActivityLog {
	e := model.ActivityLog{
		Action:       action,
		ResourceType: rt,
		Details:      details,
	}
	if userID != uuid.Nil {
		uid := userID
		e.UserID = &uid
	}
	if resourceID != uuid.Nil {
		rid := resourceID
		e.ResourceID = &rid
	}
	return e
}
