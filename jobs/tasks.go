package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskAuthzSync reconciles the declared operation registry with the
	// permission catalog.
	TaskAuthzSync = "authz:sync"
	// TaskAuthzWarmup pre-resolves permission sets for recently active
	// users so their first request hits a warm cache.
	TaskAuthzWarmup = "authz:cache_warmup"
	// TaskNotifyAssignment delivers a task-assignment notification.
	TaskNotifyAssignment = "tasks:notify_assignment"
)

// AuthzWarmupPayload bounds how many users a warmup run touches.
type AuthzWarmupPayload struct {
	Limit int `json:"limit"`
}

// NotifyAssignmentPayload identifies the task and its new assignee.
type NotifyAssignmentPayload struct {
	TaskID     int64 `json:"taskId"`
	AssigneeID int64 `json:"assigneeId"`
}

// NewAuthzSyncTask constructs a catalog sync task. The payload is empty;
// the handler reads the registry it was wired with.
func NewAuthzSyncTask() *asynq.Task {
	return asynq.NewTask(TaskAuthzSync, nil)
}

// NewAuthzWarmupTask constructs a cache warmup task.
func NewAuthzWarmupTask(payload AuthzWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthzWarmup, data), nil
}

// NewNotifyAssignmentTask constructs an assignment notification task.
func NewNotifyAssignmentTask(payload NotifyAssignmentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyAssignment, data), nil
}
