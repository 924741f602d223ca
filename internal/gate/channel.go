package gate

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrChannelNotFound = errors.New("channel not found")

// Channel — обязательный канал. Настраивается извне, ядро его только читает.
type Channel struct {
	ChannelID  int64  `gorm:"primaryKey;autoIncrement:false"`
	Username   string `gorm:"size:128;not null"`
	Title      string `gorm:"size:128"`
	InviteLink string `gorm:"size:256"`
	IsPrivate  bool
	IsActive   bool `gorm:"not null;default:true"`
}

func (Channel) TableName() string {
	return "channels"
}

// ChannelStore — список обязательных каналов.
type ChannelStore struct {
	db *gorm.DB
}

func NewChannelStore(db *gorm.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

// Active возвращает активные каналы.
func (s *ChannelStore) Active(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&channels).Error
	return channels, err
}

// Seed добавляет каналы из конфигурации, не трогая уже существующие.
func (s *ChannelStore) Seed(ctx context.Context, channels []Channel) error {
	for _, ch := range channels {
		ch.IsActive = true
		err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&ch).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Add добавляет (или заново активирует) канал.
func (s *ChannelStore) Add(ctx context.Context, ch Channel) error {
	ch.IsActive = true
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&ch).Error
}

// Remove удаляет канал из списка обязательных.
func (s *ChannelStore) Remove(ctx context.Context, channelID int64) error {
	res := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&Channel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrChannelNotFound
	}
	return nil
}
