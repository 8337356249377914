package service

import (
	"context"

	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

// AuditTrail is best-effort: Record never fails the caller.
type AuditTrail interface {
	Record(ctx context.Context, employeeID int64, activity domain.ActivityType, description string, relatedEntityID *int64)
}

type auditTrail struct {
	repo repository.ActivityRepository
}

func NewAuditTrail(repo repository.ActivityRepository) AuditTrail {
	return &auditTrail{repo: repo}
}

func (a *auditTrail) Record(ctx context.Context, employeeID int64, activity domain.ActivityType, description string, relatedEntityID *int64) {
	entry := &domain.ActivityLogEntry{
		Type:            activity,
		Description:     description,
		RelatedEntityID: relatedEntityID,
	}
	if employeeID > 0 {
		entry.EmployeeID = &employeeID
	}

	// The business action has already committed; a cancelled request must not drop its log line.
	if err := a.repo.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.WarnContext(ctx, "Failed to write activity log",
			"error", err,
			"activity_type", activity,
			"related_entity_id", relatedEntityID,
		)
	}
}

func ref(id int64) *int64 {
	return &id
}
