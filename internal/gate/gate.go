package gate

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// State — состояние доступа пользователя к одному каналу.
type State int

const (
	NotChecked State = iota
	Subscribed
	NotSubscribed
	RequestPending
	RequestApproved
	RequestRejected
	RequestCancelled
)

func (s State) String() string {
	switch s {
	case Subscribed:
		return "subscribed"
	case NotSubscribed:
		return "not_subscribed"
	case RequestPending:
		return "request_pending"
	case RequestApproved:
		return "request_approved"
	case RequestRejected:
		return "request_rejected"
	case RequestCancelled:
		return "request_cancelled"
	default:
		return "not_checked"
	}
}

// Allows сообщает, пропускает ли состояние через шлюз. Заявка pending
// пропускает наравне с approved.
func (s State) Allows() bool {
	switch s {
	case Subscribed, RequestPending, RequestApproved:
		return true
	default:
		return false
	}
}

// MembershipClient — порт живой проверки членства у платформы.
type MembershipClient interface {
	MemberStatus(ctx context.Context, channelID, userID int64) (string, error)
}

// Gate решает доступ по одному каналу. Публичные каналы проверяются живым
// запросом к платформе, приватные — только по журналу заявок. Любая ошибка
// закрывает доступ, никогда не открывает.
type Gate struct {
	members MembershipClient
	ledger  *Ledger
	log     *zap.Logger
}

func NewGate(members MembershipClient, ledger *Ledger, log *zap.Logger) *Gate {
	return &Gate{members: members, ledger: ledger, log: log}
}

// Check возвращает состояние доступа пользователя к каналу.
func (g *Gate) Check(ctx context.Context, ch Channel, userID int64) State {
	if ch.IsPrivate {
		return g.checkPrivate(ctx, ch, userID)
	}
	return g.checkPublic(ctx, ch, userID)
}

func (g *Gate) checkPublic(ctx context.Context, ch Channel, userID int64) State {
	status, err := g.members.MemberStatus(ctx, ch.ChannelID, userID)
	if err != nil {
		g.log.Warn("membership lookup failed, treating as not subscribed",
			zap.Int64("channel_id", ch.ChannelID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return NotSubscribed
	}
	if isOutside(status) {
		return NotSubscribed
	}
	return Subscribed
}

func (g *Gate) checkPrivate(ctx context.Context, ch Channel, userID int64) State {
	entry, err := g.ledger.Get(ctx, userID, ch.ChannelID)
	if errors.Is(err, ErrNoEntry) {
		return NotChecked
	}
	if err != nil {
		g.log.Warn("ledger lookup failed, treating as not checked",
			zap.Int64("channel_id", ch.ChannelID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return NotChecked
	}

	switch entry.Status {
	case RequestPendingStatus:
		return RequestPending
	case RequestApprovedStatus:
		return RequestApproved
	case RequestRejectedStatus:
		return RequestRejected
	case RequestCancelledStatus:
		return RequestCancelled
	default:
		return NotChecked
	}
}
