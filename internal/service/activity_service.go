package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/repository"
)

// ActivityService is the read side of the audit trail.
type ActivityService struct {
	logs repository.ActivityLogRepository
	gate access.Gate
}

func NewActivityService(db *gorm.DB, gate access.Gate) *ActivityService {
	return &ActivityService{
		logs: repository.NewGormActivityLogRepository(db),
		gate: gateOrDefault(gate),
	}
}

type LogQuery struct {
	UserID       *uuid.UUID
	ResourceType model.ResourceType
	From, To     *time.Time
}

func (s *ActivityService) ListLogs(ctx context.Context, actor access.Actor, q LogQuery, p pagination.Params) (pagination.Page[model.ActivityLog], error) {
	if err := authorize(s.gate, actor, access.ViewActivityLogs, access.Resource{}); err != nil {
		return pagination.Page[model.ActivityLog]{}, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return pagination.Page[model.ActivityLog]{}, fail(ErrInvalidInput, "endDate must not be before startDate")
	}

	logs, total, err := s.logs.List(ctx, repository.ActivityLogFilter{
		UserID:       q.UserID,
		ResourceType: q.ResourceType,
		From:         q.From,
		To:           q.To,
	}, p.Limit(), p.Offset())
	if err != nil {
		return pagination.Page[model.ActivityLog]{}, err
	}
	return pagination.FromTotal(logs, total, p), nil
}

// CanStream reports whether actor may follow the live feed.
func (s *ActivityService) CanStream(actor access.Actor) error {
	return authorize(s.gate, actor, access.ViewActivityLogs, access.Resource{})
}
