package report

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("report not found")

// Типы жалоб на видео.
const (
	TypeWrongMovie = "wrong_movie"
	TypeBadQuality = "bad_quality"
	TypeNoSound    = "no_sound"
	TypeOther      = "other"
)

const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
)

// Report — жалоба пользователя на запись каталога.
type Report struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"not null;index"`
	MovieCode   string `gorm:"size:64;not null;index"`
	ReportType  string `gorm:"size:32;not null"`
	Description string
	Status      string `gorm:"size:16;not null;default:pending"`
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	ResolvedBy  *int64
}

func (Report) TableName() string {
	return "reports"
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Add создаёт жалобу со статусом pending.
func (s *Store) Add(ctx context.Context, userID int64, movieCode, reportType, description string) (Report, error) {
	r := Report{
		UserID:      userID,
		MovieCode:   movieCode,
		ReportType:  reportType,
		Description: description,
		Status:      StatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return Report{}, err
	}
	return r, nil
}

// Pending — нерассмотренные жалобы, старые первыми.
func (s *Store) Pending(ctx context.Context) ([]Report, error) {
	var reports []Report
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at").
		Find(&reports).Error
	return reports, err
}

// Resolve помечает жалобу рассмотренной.
func (s *Store) Resolve(ctx context.Context, id uint, adminID int64) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&Report{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":      StatusResolved,
			"resolved_at": now,
			"resolved_by": adminID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForMovie удаляет жалобы на запись вместе с самой записью каталога.
func (s *Store) DeleteForMovie(ctx context.Context, movieCode string) error {
	return s.db.WithContext(ctx).Where("movie_code = ?", movieCode).Delete(&Report{}).Error
}
