package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssignmentAudit is the task type for the role assignment audit scan.
	TaskAssignmentAudit = "authz:assignment_audit"
)

// AssignmentAuditPayload tunes a single audit scan run.
type AssignmentAuditPayload struct {
	// UnprivilegedThreshold is the privilege level above which a role is
	// considered privileged. Zero or negative falls back to 1.
	UnprivilegedThreshold int `json:"unprivileged_threshold"`
	// Limit caps the number of users inspected per run. Zero means no cap.
	Limit int `json:"limit"`
}

// NewAssignmentAuditTask constructs an Asynq task for the audit scan.
func NewAssignmentAuditTask(payload AssignmentAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssignmentAudit, data), nil
}
