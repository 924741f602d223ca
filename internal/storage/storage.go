package storage

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kinokod/internal/catalog"
	"kinokod/internal/gate"
	"kinokod/internal/report"
)

// Storage — обёртка над GORM: соединение, пул, миграции.
type Storage struct {
	DB  *gorm.DB
	log *zap.Logger
}

// New подключается к PostgreSQL, выполняет AutoMigrate всех моделей и
// возвращает Storage.
func New(dsn string, log *zap.Logger) (*Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	err = db.AutoMigrate(
		&catalog.Movie{},
		&catalog.MovieTag{},
		&gate.Channel{},
		&gate.ChannelRequest{},
		&report.Report{},
	)
	if err != nil {
		return nil, err
	}

	log.Info("storage initialized (PostgreSQL)")
	return &Storage{DB: db, log: log}, nil
}

// Close закрывает соединение с БД.
func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
