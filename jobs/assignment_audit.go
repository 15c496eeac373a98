package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/aulahq/aula/internal/jobs"
)

// AssignmentAuditJob scans persisted role assignments for users whose role set
// violates the assignment rules: more than one privileged role, or roles with
// mixed privilege levels. Violations can only appear through out-of-band
// writes (migrations, manual SQL), so the job reports rather than repairs.
type AssignmentAuditJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAssignmentAuditJob initialises the audit scan handler.
func NewAssignmentAuditJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AssignmentAuditJob {
	return &AssignmentAuditJob{Pool: pool, Logger: logger, Metrics: metrics}
}

type assignmentSummary struct {
	UserID          int64
	PrivilegedCount int
	DistinctLevels  int
	RoleCount       int
}

// Handle executes the assignment audit scan.
func (j *AssignmentAuditJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("assignment audit: handler not configured")
	}
	var payload AssignmentAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UnprivilegedThreshold <= 0 {
		payload.UnprivilegedThreshold = 1
	}

	tracker := j.metrics().Track(TaskAssignmentAudit)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("threshold", payload.UnprivilegedThreshold))
	logger.Info("starting assignment audit scan")

	summaries, err := j.scan(ctx, payload)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	multiPrivileged := 0
	mixedLevels := 0
	for _, s := range summaries {
		if s.PrivilegedCount > 1 {
			multiPrivileged++
			logger.Warn("user holds multiple privileged roles",
				slog.Int64("user_id", s.UserID),
				slog.Int("privileged_roles", s.PrivilegedCount),
			)
		}
		if s.DistinctLevels > 1 {
			mixedLevels++
			logger.Warn("user holds roles with mixed privilege levels",
				slog.Int64("user_id", s.UserID),
				slog.Int("distinct_levels", s.DistinctLevels),
				slog.Int("roles", s.RoleCount),
			)
		}
	}
	j.metrics().AddViolations("multi_privileged", multiPrivileged)
	j.metrics().AddViolations("mixed_levels", mixedLevels)

	logger.Info("assignment audit scan complete",
		slog.Int("users_scanned", len(summaries)),
		slog.Int("multi_privileged", multiPrivileged),
		slog.Int("mixed_levels", mixedLevels),
	)
	return nil
}

func (j *AssignmentAuditJob) scan(ctx context.Context, payload AssignmentAuditPayload) ([]assignmentSummary, error) {
	query := `
		SELECT ur.user_id,
		       COUNT(*) FILTER (WHERE r.privilege_level > $1) AS privileged_count,
		       COUNT(DISTINCT r.privilege_level) AS distinct_levels,
		       COUNT(*) AS role_count
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		GROUP BY ur.user_id
		ORDER BY ur.user_id`
	args := []any{payload.UnprivilegedThreshold}
	if payload.Limit > 0 {
		query += ` LIMIT $2`
		args = append(args, payload.Limit)
	}

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []assignmentSummary
	for rows.Next() {
		var s assignmentSummary
		if err := rows.Scan(&s.UserID, &s.PrivilegedCount, &s.DistinctLevels, &s.RoleCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (j *AssignmentAuditJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AssignmentAuditJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
