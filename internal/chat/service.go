// Package chat implements threads, messages, and the block list that
// gates sending inside shared threads.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lakshan-j/threadgate/internal/models"
	"github.com/lakshan-j/threadgate/internal/repository"
	"go.uber.org/zap"
)

// AccessGate is the authorization check consumed before every send and
// edit. Satisfied by *access.Controller.
type AccessGate interface {
	HasAccess(ctx context.Context, caller uuid.UUID) (bool, error)
}

// Service owns thread and message integrity. Every operation takes the
// caller explicitly; participant and ownership checks happen here so the
// stores stay policy-free.
type Service struct {
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	blocks   repository.BlockRepository
	gate     AccessGate
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	blocks repository.BlockRepository,
	gate AccessGate,
	now func() time.Time,
	logger *zap.Logger,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		threads:  threads,
		messages: messages,
		blocks:   blocks,
		gate:     gate,
		now:      now,
		logger:   logger,
	}
}

// CreateThread starts a thread between the caller and the named
// participants. The caller is always included; duplicates are collapsed.
// Fewer than two distinct participants is an invalid request.
//
// Retries are at-least-once: a repeated create yields a second thread, and
// clients dedupe on the returned id.
func (s *Service) CreateThread(ctx context.Context, caller uuid.UUID, participants []uuid.UUID) (int64, error) {
	seen := map[uuid.UUID]bool{caller: true}
	distinct := []uuid.UUID{caller}
	for _, p := range participants {
		if p == uuid.Nil || seen[p] {
			continue
		}
		seen[p] = true
		distinct = append(distinct, p)
	}
	if len(distinct) < 2 {
		return 0, fmt.Errorf("a thread needs at least two participants: %w", models.ErrInvalidArgument)
	}

	thread, err := s.threads.Create(ctx, distinct, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("create thread: %w", err)
	}
	s.logger.Info("thread created",
		zap.Int64("thread_id", thread.ID),
		zap.Int("participants", len(distinct)),
	)
	return thread.ID, nil
}

// UserThreads lists ids of threads the caller participates in.
func (s *Service) UserThreads(ctx context.Context, caller uuid.UUID) ([]int64, error) {
	ids, err := s.threads.ListByUser(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return ids, nil
}

// requireParticipant loads the thread and verifies membership.
func (s *Service) requireParticipant(ctx context.Context, threadID int64, caller uuid.UUID) (*models.Thread, error) {
	thread, err := s.threads.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %d: %w", threadID, models.ErrNotFound)
	}
	for _, p := range thread.Participants {
		if p == caller {
			return thread, nil
		}
	}
	return nil, models.ErrForbidden
}

// GetThread returns the thread with its rendered messages.
// Participant-only.
func (s *Service) GetThread(ctx context.Context, caller uuid.UUID, threadID int64) (*models.ThreadView, error) {
	thread, err := s.requireParticipant(ctx, threadID, caller)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, m.View())
	}
	return &models.ThreadView{
		ID:           thread.ID,
		Participants: thread.Participants,
		Messages:     views,
	}, nil
}

// GetMessages returns the thread's message sequence in id order, deleted
// entries tombstoned. Participant-only.
func (s *Service) GetMessages(ctx context.Context, caller uuid.UUID, threadID int64) ([]models.MessageView, error) {
	if _, err := s.requireParticipant(ctx, threadID, caller); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, m.View())
	}
	return views, nil
}

// SendMessage appends a message to the thread.
//
// Preconditions, in order: the caller is authorized (entitlement gate),
// is a participant, the content is non-empty, and no other participant is
// in the caller's own block set. Only the sender's block set is checked;
// the reverse direction is deliberately not enforced here.
func (s *Service) SendMessage(ctx context.Context, caller uuid.UUID, threadID int64, content string) (int64, error) {
	ok, err := s.gate.HasAccess(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("caller has no messaging access: %w", models.ErrUnauthorized)
	}
	thread, err := s.requireParticipant(ctx, threadID, caller)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("empty message: %w", models.ErrInvalidArgument)
	}
	for _, p := range thread.Participants {
		if p == caller {
			continue
		}
		blocked, err := s.blocks.Has(ctx, caller, p)
		if err != nil {
			return 0, fmt.Errorf("check block: %w", err)
		}
		if blocked {
			return 0, fmt.Errorf("unblock %s to message this thread: %w", p, models.ErrBlocked)
		}
	}

	msg, err := s.messages.Append(ctx, threadID, caller, content, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	return msg.ID, nil
}

// EditMessage rewrites a message's content in place. Sender-only, refused
// once the message is deleted. ID and timestamp are preserved.
func (s *Service) EditMessage(ctx context.Context, caller uuid.UUID, threadID, messageID int64, newContent string) error {
	ok, err := s.gate.HasAccess(ctx, caller)
	if err != nil {
		return fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return fmt.Errorf("caller has no messaging access: %w", models.ErrUnauthorized)
	}
	if _, err := s.requireParticipant(ctx, threadID, caller); err != nil {
		return err
	}
	if strings.TrimSpace(newContent) == "" {
		return fmt.Errorf("empty message: %w", models.ErrInvalidArgument)
	}
	msg, err := s.messages.Get(ctx, threadID, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("message %d: %w", messageID, models.ErrNotFound)
	}
	if msg.Sender != caller {
		return fmt.Errorf("only the sender may edit: %w", models.ErrUnauthorized)
	}
	if msg.Deleted {
		return fmt.Errorf("message %d is deleted: %w", messageID, models.ErrInvalidState)
	}
	if err := s.messages.UpdateContent(ctx, threadID, messageID, newContent); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// DeleteMessage soft-deletes a message. Sender-only, idempotent in
// effect: deleting an already-deleted message leaves it deleted.
func (s *Service) DeleteMessage(ctx context.Context, caller uuid.UUID, threadID, messageID int64) error {
	if _, err := s.requireParticipant(ctx, threadID, caller); err != nil {
		return err
	}
	msg, err := s.messages.Get(ctx, threadID, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return fmt.Errorf("message %d: %w", messageID, models.ErrNotFound)
	}
	if msg.Sender != caller {
		return fmt.Errorf("only the sender may delete: %w", models.ErrUnauthorized)
	}
	if err := s.messages.MarkDeleted(ctx, threadID, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// DeleteThread physically removes the thread and everything in it.
// Participant-only, irreversible.
func (s *Service) DeleteThread(ctx context.Context, caller uuid.UUID, threadID int64) error {
	if _, err := s.requireParticipant(ctx, threadID, caller); err != nil {
		return err
	}
	if err := s.threads.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	s.logger.Info("thread deleted", zap.Int64("thread_id", threadID))
	return nil
}

// Block adds a directed block edge from the caller. Idempotent. Blocking
// someone you share no thread with is legal and simply has no messaging
// effect.
func (s *Service) Block(ctx context.Context, caller, user uuid.UUID) error {
	if caller == user {
		return fmt.Errorf("cannot block yourself: %w", models.ErrInvalidArgument)
	}
	if err := s.blocks.Add(ctx, caller, user); err != nil {
		return fmt.Errorf("add block: %w", err)
	}
	return nil
}

// Unblock removes the caller's block edge. Idempotent.
func (s *Service) Unblock(ctx context.Context, caller, user uuid.UUID) error {
	if err := s.blocks.Remove(ctx, caller, user); err != nil {
		return fmt.Errorf("remove block: %w", err)
	}
	return nil
}

// HasBlocked reports whether the caller blocks the other user.
func (s *Service) HasBlocked(ctx context.Context, caller, other uuid.UUID) (bool, error) {
	blocked, err := s.blocks.Has(ctx, caller, other)
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return blocked, nil
}

// BlockedUsers returns the caller's full block set.
func (s *Service) BlockedUsers(ctx context.Context, caller uuid.UUID) ([]uuid.UUID, error) {
	blocked, err := s.blocks.List(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocked, nil
}
