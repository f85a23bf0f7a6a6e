package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/database"
	"github.com/taskdown/server/internal/ports"
)

// ActivityRepository appends and reads the audit trail. Records are
// append-only; there is no update or delete.
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityRow struct {
	ID         string  `db:"id"`
	UserID     string  `db:"user_id"`
	UserName   string  `db:"user_name"`
	Action     string  `db:"action"`
	TargetType string  `db:"target_type"`
	TargetID   string  `db:"target_id"`
	TargetName string  `db:"target_name"`
	Details    *string `db:"details"`
	Timestamp  string  `db:"timestamp"`
}

func (r activityRow) toActivity() (*entities.Activity, error) {
	ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("malformed timestamp for activity %s: %w", r.ID, err)
	}

	activity := &entities.Activity{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		Action:     r.Action,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		TargetName: r.TargetName,
		Timestamp:  ts,
	}

	if r.Details != nil && *r.Details != "" {
		var details entities.ActivityDetails
		if err := json.Unmarshal([]byte(*r.Details), &details); err != nil {
			return nil, fmt.Errorf("malformed details for activity %s: %w", r.ID, err)
		}
		activity.Details = &details
	}

	return activity, nil
}

// Record appends an audit record, assigning id and timestamp when missing.
func (r *ActivityRepository) Record(ctx context.Context, activity *entities.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}

	var details *string
	if activity.Details != nil {
		raw, err := json.Marshal(activity.Details)
		if err != nil {
			return entities.NewStorageError("record", "activity", activity.ID, err)
		}
		s := string(raw)
		details = &s
	}

	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, user_name, action, target_type, target_id, target_name, details, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.UserID, activity.UserName, activity.Action,
		activity.TargetType, activity.TargetID, activity.TargetName,
		details, activity.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return entities.NewStorageError("record", "activity", activity.ID, err)
	}

	return nil
}

// List pages through the audit trail newest first, returning the page and the
// total count of matching records.
func (r *ActivityRepository) List(ctx context.Context, filter ports.ActivityFilter) ([]*entities.Activity, int, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.TargetID != nil {
		conditions = append(conditions, "target_id = ?")
		args = append(args, *filter.TargetID)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM activities"+where, args...); err != nil {
		return nil, 0, entities.NewStorageError("count", "activity", "", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, user_name, action, target_type, target_id, target_name, details, timestamp
		 FROM activities` + where + " ORDER BY timestamp DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	var rows []activityRow
	if err := r.db.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, entities.NewStorageError("list", "activity", "", err)
	}

	activities := make([]*entities.Activity, 0, len(rows))
	for _, row := range rows {
		activity, err := row.toActivity()
		if err != nil {
			return nil, 0, entities.NewStorageError("list", "activity", row.ID, err)
		}
		activities = append(activities, activity)
	}

	return activities, total, nil
}
