package gate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoEntry = errors.New("ledger entry not found")

// RequestStatus — статус заявки на вступление в приватный канал.
type RequestStatus string

const (
	RequestPendingStatus   RequestStatus = "pending"
	RequestApprovedStatus  RequestStatus = "approved"
	RequestRejectedStatus  RequestStatus = "rejected"
	RequestCancelledStatus RequestStatus = "cancelled"
)

// ChannelRequest — единственное долговременное состояние доступа к приватному
// каналу. Создаётся событием заявки, меняется только событиями платформы об
// изменении членства.
type ChannelRequest struct {
	UserID    int64         `gorm:"primaryKey;autoIncrement:false"`
	ChannelID int64         `gorm:"primaryKey;autoIncrement:false"`
	Status    RequestStatus `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ChannelRequest) TableName() string {
	return "channel_requests"
}

// Ledger — журнал заявок поверх GORM. Мутации применяются атомарно на ключ
// (user, channel), чтобы не гоняться с параллельной проверкой доступа.
type Ledger struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLedger(db *gorm.DB, log *zap.Logger) *Ledger {
	return &Ledger{db: db, log: log}
}

// Get возвращает запись журнала или ErrNoEntry.
func (l *Ledger) Get(ctx context.Context, userID, channelID int64) (ChannelRequest, error) {
	var entry ChannelRequest
	err := l.db.WithContext(ctx).
		First(&entry, "user_id = ? AND channel_id = ?", userID, channelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ChannelRequest{}, ErrNoEntry
	}
	if err != nil {
		return ChannelRequest{}, err
	}
	return entry, nil
}

// ApplyJoinRequest фиксирует заявку на вступление: запись создаётся или
// переводится в pending.
func (l *Ledger) ApplyJoinRequest(ctx context.Context, userID, channelID int64) error {
	l.log.Info("join request",
		zap.Int64("user_id", userID),
		zap.Int64("channel_id", channelID),
	)
	return l.upsertStatus(ctx, userID, channelID, RequestPendingStatus)
}

// ApplyMembershipChange применяет событие платформы об изменении членства:
// выход->вступление даёт approved, вступление->выход даёт cancelled, прочие
// переходы журнал не трогают.
func (l *Ledger) ApplyMembershipChange(ctx context.Context, userID, channelID int64, oldStatus, newStatus string) error {
	var status RequestStatus
	switch {
	case isOutside(oldStatus) && isInside(newStatus):
		status = RequestApprovedStatus
	case isInside(oldStatus) && isOutside(newStatus):
		status = RequestCancelledStatus
	default:
		return nil
	}

	l.log.Info("membership change",
		zap.Int64("user_id", userID),
		zap.Int64("channel_id", channelID),
		zap.String("old", oldStatus),
		zap.String("new", newStatus),
		zap.String("ledger_status", string(status)),
	)
	return l.upsertStatus(ctx, userID, channelID, status)
}

func (l *Ledger) upsertStatus(ctx context.Context, userID, channelID int64, status RequestStatus) error {
	now := time.Now()
	entry := ChannelRequest{
		UserID:    userID,
		ChannelID: channelID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}),
	}).Create(&entry).Error
}

func isInside(status string) bool {
	return status == "member" || status == "administrator"
}

func isOutside(status string) bool {
	return status == "left" || status == "kicked"
}
