package repository

import (
	"context"
	"time"

	"github.com/diagnosis/frontdesk/pkg/database"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
)

type ActivityRepository interface {
	Append(ctx context.Context, e *domain.ActivityLogEntry) error
}

type activityRepository struct {
	db database.DBTX
}

func NewActivityRepository(db database.DBTX) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, e *domain.ActivityLogEntry) error {
	const q = `INSERT INTO activity_logs (employee_id, activity_type, description, related_entity_id)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.QueryRow(ctx, q, e.EmployeeID, e.Type, e.Description, e.RelatedEntityID).Scan(&e.ID, &e.CreatedAt)
}
