package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kinokod/internal/tags"
)

var ErrNotFound = errors.New("movie not found")

// Index — каталог видео поверх GORM. Все операции атомарны относительно
// друг друга: запись и её теги меняются вместе или не меняются вовсе.
type Index struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Index {
	return &Index{db: db, log: log}
}

// Upsert прогоняет подпись через разбор тегов и заменяет запись вместе со
// всем её набором тегов одним шагом. Повторный вызов с той же подписью
// идемпотентен.
func (ix *Index) Upsert(ctx context.Context, code, fileID, caption string, duration int, fileSize int64) (Movie, error) {
	var movie Movie

	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Movie{}).Count(&count).Error; err != nil {
			return err
		}

		res := tags.Extract(caption, int(count)+1)

		movie = Movie{
			Code:       code,
			FileID:     fileID,
			Caption:    caption,
			Title:      res.Title,
			CleanTitle: res.CleanTitle,
			AddedAt:    time.Now().UnixNano(),
			Duration:   duration,
			FileSize:   fileSize,
		}

		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&movie).Error; err != nil {
			return err
		}

		// Набор тегов заменяется целиком, без слияния со старым
		if err := tx.Where("code = ?", code).Delete(&MovieTag{}).Error; err != nil {
			return err
		}
		for _, tag := range res.Tags {
			row := MovieTag{Code: code, TagType: string(tag.Type), TagValue: tag.Value}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Movie{}, err
	}

	ix.log.Info("movie upserted",
		zap.String("code", code),
		zap.String("title", movie.Title),
	)
	return movie, nil
}

// GetByCode возвращает запись по коду или ErrNotFound.
func (ix *Index) GetByCode(ctx context.Context, code string) (Movie, error) {
	var movie Movie
	err := ix.db.WithContext(ctx).First(&movie, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Movie{}, ErrNotFound
	}
	if err != nil {
		return Movie{}, err
	}
	return movie, nil
}

// Delete удаляет запись и все её теги. ErrNotFound, если кода нет.
func (ix *Index) Delete(ctx context.Context, code string) error {
	return ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).Delete(&MovieTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("code = ?", code).Delete(&Movie{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListByTag — записи с тегом (tagType, tagValue), значение сравнивается без
// учёта регистра. Порядок — по времени добавления, новые первыми.
func (ix *Index) ListByTag(ctx context.Context, tagType, tagValue string, page, pageSize int) ([]Movie, int64, error) {
	base := ix.db.WithContext(ctx).Model(&Movie{}).
		Joins("JOIN movie_tags ON movie_tags.code = movies.code").
		Where("movie_tags.tag_type = ? AND LOWER(movie_tags.tag_value) = ?", tagType, strings.ToLower(tagValue))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []Movie
	err := base.Session(&gorm.Session{}).
		Order("movies.added_at DESC").
		Limit(pageSize).Offset(page * pageSize).
		Find(&movies).Error
	return movies, total, err
}

// ListRecentByYears — объединение записей по нескольким значениям тега year,
// новые первыми.
func (ix *Index) ListRecentByYears(ctx context.Context, years []string, page, pageSize int) ([]Movie, int64, error) {
	if len(years) == 0 {
		return nil, 0, nil
	}

	base := ix.db.WithContext(ctx).Model(&Movie{}).
		Joins("JOIN movie_tags ON movie_tags.code = movies.code").
		Where("movie_tags.tag_type = ? AND movie_tags.tag_value IN ?", string(tags.TypeYear), years)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("movies.code").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []Movie
	err := base.Session(&gorm.Session{}).
		Distinct("movies.*").
		Order("movies.added_at DESC").
		Limit(pageSize).Offset(page * pageSize).
		Find(&movies).Error
	return movies, total, err
}

// ListTop — записи с views не ниже порога, по убыванию просмотров.
func (ix *Index) ListTop(ctx context.Context, minViews int64, page, pageSize int) ([]Movie, int64, error) {
	base := ix.db.WithContext(ctx).Model(&Movie{}).Where("views >= ?", minViews)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []Movie
	err := base.Session(&gorm.Session{}).
		Order("views DESC").
		Limit(pageSize).Offset(page * pageSize).
		Find(&movies).Error
	return movies, total, err
}

// ListAll — весь каталог постранично, новые первыми.
func (ix *Index) ListAll(ctx context.Context, page, pageSize int) ([]Movie, int64, error) {
	var total int64
	if err := ix.db.WithContext(ctx).Model(&Movie{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movies []Movie
	err := ix.db.WithContext(ctx).
		Order("added_at DESC").
		Limit(pageSize).Offset(page * pageSize).
		Find(&movies).Error
	return movies, total, err
}

// IncrementViews увеличивает счётчик просмотров на единицу.
func (ix *Index) IncrementViews(ctx context.Context, code string) error {
	return ix.db.WithContext(ctx).Model(&Movie{}).
		Where("code = ?", code).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// Random — случайная запись каталога или ErrNotFound на пустом каталоге.
func (ix *Index) Random(ctx context.Context) (Movie, error) {
	var movie Movie
	err := ix.db.WithContext(ctx).Order("RANDOM()").First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Movie{}, ErrNotFound
	}
	if err != nil {
		return Movie{}, err
	}
	return movie, nil
}

// Count — общее число записей каталога.
func (ix *Index) Count(ctx context.Context) (int64, error) {
	var count int64
	err := ix.db.WithContext(ctx).Model(&Movie{}).Count(&count).Error
	return count, err
}

// Tags — теги записи (для карточки видео).
func (ix *Index) Tags(ctx context.Context, code string) ([]MovieTag, error) {
	var rows []MovieTag
	err := ix.db.WithContext(ctx).
		Where("code = ?", code).
		Order("tag_type, tag_value").
		Find(&rows).Error
	return rows, err
}

// SearchCandidates — широкая выборка кандидатов для поискового движка.
// Точная фильтрация и ранжирование — на стороне вызывающего.
func (ix *Index) SearchCandidates(ctx context.Context, rawQuery, cleanQuery string) ([]Movie, error) {
	q := ix.db.WithContext(ctx).Model(&Movie{})

	raw := likePattern(rawQuery)
	cond := ix.db.Where(`title LIKE ? ESCAPE '\'`, raw).Or(`code LIKE ? ESCAPE '\'`, raw)
	if cleanQuery != "" {
		clean := likePattern(cleanQuery)
		cond = cond.Or(`clean_title LIKE ? ESCAPE '\'`, clean).Or(`LOWER(caption) LIKE ? ESCAPE '\'`, clean)
	}

	var movies []Movie
	err := q.Where(cond).Find(&movies).Error
	return movies, err
}

// TotalPages — число страниц по контракту пагинации (ceil).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func likePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return "%" + s + "%"
}
