package tags

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Type — тип тега каталога.
type Type string

const (
	TypeTitle    Type = "title"
	TypeGenre    Type = "genre"
	TypeCountry  Type = "country"
	TypeYear     Type = "year"
	TypeQuality  Type = "quality"
	TypeLanguage Type = "language"
)

// Tag — классифицированная пара (тип, значение).
type Tag struct {
	Type  Type
	Value string
}

// Result — результат разбора подписи к видео.
type Result struct {
	Title      string
	CleanTitle string
	Tags       []Tag
}

// Словари категорий. Значение из словаря (не сырой токен) становится
// значением тега.
var (
	Genres = []string{
		"Jangari", "Drama", "Komediya", "Melodrama", "Sarguzasht",
		"Qorqinchli", "Tarixiy", "Klassika", "Fantastika", "Hayotiy",
		"Triller", "Detektiv", "Hujjatli_film", "Anime", "Kriminal",
		"Fentezi", "Afsona", "Vester", "Musiqiy",
	}
	Countries = []string{
		"Rossiya", "AQSH", "Turkiya", "Xitoy", "Hindiston",
		"Avstraliya", "Buyuk britaniya", "Janubiy koreya", "Ukraina",
		"Qozogiston", "Fransiya", "Eron", "Yaponiya",
	}
	Qualities = []string{"1080P", "720P", "480P", "4K"}
	Languages = []string{"UZ", "RU", "EN", "TR", "KR", "CN"}
)

// Поддерживаемый диапазон годов.
const (
	YearMin = 2010
	YearMax = 2025
)

const maxTitleLen = 100

var (
	reTitleMarker = regexp.MustCompile(`(?i)#(?:nomi|nazar)[_:]?\s*([^#\n]+)`)
	reHashtag     = regexp.MustCompile(`#(\w+)`)
)

// Extract разбирает подпись: заголовок, нормализованный заголовок и набор
// тегов. Детерминирована, не падает ни на какой подписи. nextSeq — порядковый
// номер для синтетического заголовка, когда из подписи ничего не извлечь.
func Extract(caption string, nextSeq int) Result {
	title := extractTitle(caption, nextSeq)

	res := Result{
		Title:      title,
		CleanTitle: Normalize(title),
	}

	seen := make(map[Tag]struct{})
	for _, m := range reHashtag.FindAllStringSubmatch(caption, -1) {
		token := m[1]
		lower := strings.ToLower(token)
		// Маркеры заголовка тегов не дают
		if strings.HasPrefix(lower, "nomi") || strings.HasPrefix(lower, "nazar") {
			continue
		}
		tag, ok := Classify(token)
		if !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		res.Tags = append(res.Tags, tag)
	}

	return res
}

// Classify относит токен хештега к одной из категорий. Сопоставление —
// двустороннее вхождение подстроки без учёта регистра, словари перебираются
// в фиксированном порядке: жанр, страна, качество, язык. Побеждает первое
// совпавшее значение словаря. Год проверяется только если ни один словарь
// не совпал. Неклассифицируемые токены отбрасываются (ok=false).
func Classify(token string) (Tag, bool) {
	lower := strings.ToLower(token)

	vocabularies := []struct {
		typ     Type
		entries []string
	}{
		{TypeGenre, Genres},
		{TypeCountry, Countries},
		{TypeQuality, Qualities},
		{TypeLanguage, Languages},
	}

	for _, v := range vocabularies {
		for _, entry := range v.entries {
			el := strings.ToLower(entry)
			if strings.Contains(lower, el) || strings.Contains(el, lower) {
				return Tag{Type: v.typ, Value: entry}, true
			}
		}
	}

	if len(token) == 4 && isDigits(token) {
		year, err := strconv.Atoi(token)
		if err == nil && year >= YearMin && year <= YearMax {
			return Tag{Type: TypeYear, Value: token}, true
		}
	}

	return Tag{}, false
}

// Normalize приводит текст к поисковому виду: всё, кроме букв и цифр,
// заменяется пробелами, пробелы схлопываются, регистр понижается.
// Используется только для сопоставления, никогда для показа.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SyntheticCode — код для видео без извлекаемого заголовка (VID0001, ...).
func SyntheticCode(seq int) string {
	return fmt.Sprintf("VID%04d", seq)
}

func extractTitle(caption string, nextSeq int) string {
	// 1) маркер #nomi / #nazar: текст до перевода строки или следующего хештега
	if m := reTitleMarker.FindStringSubmatch(caption); m != nil {
		title := strings.TrimSpace(m[1])
		if title != "" {
			return truncate(title, maxTitleLen)
		}
	}

	// 2) первая непустая строка без хештегов длиной больше 3 символов
	stripped := reHashtag.ReplaceAllString(caption, "")
	for _, line := range strings.Split(stripped, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) > 3 {
			return truncate(line, maxTitleLen)
		}
	}

	// 3) синтетический заголовок
	return "Video #" + SyntheticCode(nextSeq)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
