package catalog

// Movie — запись каталога. Ключ — код, по которому пользователи запрашивают
// видео. FileID — непрозрачный идентификатор контента у платформы.
type Movie struct {
	Code       string `gorm:"primaryKey;size:64"`
	FileID     string `gorm:"size:512;not null"`
	Caption    string
	Title      string `gorm:"size:100"`
	CleanTitle string `gorm:"size:100;index"` // только для поиска, не для показа
	AddedAt    int64  `gorm:"not null;index"` // UnixNano, порядок вставки
	Views      int64  `gorm:"not null;default:0"`
	Duration   int
	FileSize   int64
}

func (Movie) TableName() string {
	return "movies"
}

// MovieTag — тег записи каталога. Живёт только вместе со своей записью:
// при повторном Upsert набор заменяется целиком, при удалении записи
// удаляется каскадно.
type MovieTag struct {
	Code     string `gorm:"primaryKey;size:64"`
	TagType  string `gorm:"primaryKey;size:16"`
	TagValue string `gorm:"primaryKey;size:100"`
}

func (MovieTag) TableName() string {
	return "movie_tags"
}
