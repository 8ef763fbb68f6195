package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-hr/meridian-hr/internal/identity"
	jobmetrics "github.com/meridian-hr/meridian-hr/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTouchLastLogin records a successful login timestamp.
	TaskTypeTouchLastLogin = "auth:touch_last_login"
)

// TouchLastLoginPayload carries the identity and login time to record.
type TouchLastLoginPayload struct {
	IdentityID string    `json:"identity_id"`
	LoginAt    time.Time `json:"login_at"`
}

// NewTouchLastLoginTask constructs an Asynq task.
func NewTouchLastLoginTask(payload TouchLastLoginPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTouchLastLogin, data), nil
}

// TouchLastLoginJob processes TaskTypeTouchLastLogin tasks. The update is
// last-write-wins: concurrent logins by the same identity need no ordering.
type TouchLastLoginJob struct {
	repo    identity.Repository
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewTouchLastLoginJob constructs the job handler.
func NewTouchLastLoginJob(repo identity.Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *TouchLastLoginJob {
	return &TouchLastLoginJob{repo: repo, logger: logger, metrics: metrics}
}

// Handle records the login timestamp for the identity in the payload.
func (j *TouchLastLoginJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTypeTouchLastLogin)
	var payload TouchLastLoginPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if err := j.repo.TouchLastLogin(ctx, payload.IdentityID, payload.LoginAt); err != nil {
		if j.logger != nil {
			j.logger.Warn("touch last login", slog.String("identity_id", payload.IdentityID), slog.Any("error", err))
		}
		return tracker.End(err)
	}
	return tracker.End(nil)
}
