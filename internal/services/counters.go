package services

import (
	"context"
	"fmt"

	"github.com/welldanyogia/webrana-mailfeed/internal/repository"
)

// CounterKind selects which mailbox counter to compute
type CounterKind string

const (
	CounterTotal  CounterKind = "total"
	CounterUnseen CounterKind = "unseen"
)

// CounterService is the mailbox-counter collaborator consumed by push
// streams after a drain
type CounterService interface {
	GetMailboxCounter(ctx context.Context, mailboxID uint, kind CounterKind) (int64, error)
}

// counterService implements CounterService over the message repository
type counterService struct {
	messages repository.MessageRepository
}

// NewCounterService creates a new CounterService instance
func NewCounterService(messages repository.MessageRepository) CounterService {
	return &counterService{messages: messages}
}

// GetMailboxCounter returns the requested counter for a mailbox
func (s *counterService) GetMailboxCounter(ctx context.Context, mailboxID uint, kind CounterKind) (int64, error) {
	switch kind {
	case CounterTotal:
		return s.messages.CountTotal(ctx, mailboxID)
	case CounterUnseen:
		return s.messages.CountUnseen(ctx, mailboxID)
	default:
		return 0, fmt.Errorf("unknown counter kind %q", kind)
	}
}
