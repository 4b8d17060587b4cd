package boards

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// RepositoryPort defines data access methods for boards and tasks.
type RepositoryPort interface {
	ListBoards(ctx context.Context, teamID int64) ([]Board, error)
	CreateBoard(ctx context.Context, teamID int64, name string) (Board, error)
	DeleteBoard(ctx context.Context, id int64) error
	ListColumns(ctx context.Context, boardID int64) ([]Column, error)
	CreateTask(ctx context.Context, columnID int64, title, body string, assigneeID *int64) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	MoveTask(ctx context.Context, id, columnID int64, position int) error
	AssignTask(ctx context.Context, id int64, assigneeID *int64) error
	DeleteTask(ctx context.Context, id int64) error
}

// Notifier delivers task events to interested users. Delivery runs out
// of band; an enqueue failure is logged and never fails the mutation.
type Notifier interface {
	TaskAssigned(ctx context.Context, taskID, assigneeID int64) error
}

// Service handles board and task business logic.
type Service struct {
	repo     RepositoryPort
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds Service instance. notifier and logger may be nil.
func NewService(repo RepositoryPort, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (s *Service) notifyAssigned(ctx context.Context, taskID, assigneeID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.TaskAssigned(ctx, taskID, assigneeID); err != nil && s.logger != nil {
		s.logger.Warn("enqueue assignment notification",
			slog.Int64("task_id", taskID),
			slog.Int64("assignee_id", assigneeID),
			slog.Any("error", err))
	}
}

// ListBoards returns the boards of a team.
func (s *Service) ListBoards(ctx context.Context, teamID int64) ([]Board, error) {
	return s.repo.ListBoards(ctx, teamID)
}

// CreateBoard creates a board for a team.
func (s *Service) CreateBoard(ctx context.Context, teamID int64, name string) (Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, errors.New("boards: name required")
	}
	return s.repo.CreateBoard(ctx, teamID, name)
}

// DeleteBoard removes a board.
func (s *Service) DeleteBoard(ctx context.Context, id int64) error {
	return s.repo.DeleteBoard(ctx, id)
}

// ListColumns returns the ordered columns of a board.
func (s *Service) ListColumns(ctx context.Context, boardID int64) ([]Column, error) {
	return s.repo.ListColumns(ctx, boardID)
}

// CreateTask creates a task and notifies the assignee if one is set.
func (s *Service) CreateTask(ctx context.Context, columnID int64, title, body string, assigneeID *int64) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, errors.New("boards: task title required")
	}
	task, err := s.repo.CreateTask(ctx, columnID, title, body, assigneeID)
	if err != nil {
		return Task{}, err
	}
	if assigneeID != nil {
		s.notifyAssigned(ctx, task.ID, *assigneeID)
	}
	return task, nil
}

// GetTask fetches one task.
func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetTask(ctx, id)
}

// MoveTask repositions a task.
func (s *Service) MoveTask(ctx context.Context, id, columnID int64, position int) error {
	return s.repo.MoveTask(ctx, id, columnID, position)
}

// AssignTask sets the assignee and notifies them.
func (s *Service) AssignTask(ctx context.Context, id int64, assigneeID *int64) error {
	if err := s.repo.AssignTask(ctx, id, assigneeID); err != nil {
		return err
	}
	if assigneeID != nil {
		s.notifyAssigned(ctx, id, *assigneeID)
	}
	return nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.repo.DeleteTask(ctx, id)
}
