package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kinokod/internal/report"
	"kinokod/internal/tags"
)

// ErrBadCallback — callback-данные не прошли строгий разбор.
var ErrBadCallback = errors.New("malformed callback data")

// CallbackKind — тип callback-команды.
type CallbackKind string

const (
	CallbackMovie     CallbackKind = "movie"
	CallbackTag       CallbackKind = "tag"
	CallbackRecent    CallbackKind = "recent"
	CallbackTop       CallbackKind = "top"
	CallbackReport    CallbackKind = "report"
	CallbackCheckJoin CallbackKind = "check-join"
)

// Callback — разобранная команда из callback-данных кнопки. Поля заполнены
// в зависимости от Kind.
type Callback struct {
	Kind       CallbackKind
	Code       string       // movie, report
	TagType    string       // tag
	TagValue   string       // tag
	Page       int          // tag, recent, top
	ReportType string       // report
}

var reCode = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validTagTypes = map[string]struct{}{
	string(tags.TypeGenre):    {},
	string(tags.TypeCountry):  {},
	string(tags.TypeYear):     {},
	string(tags.TypeQuality):  {},
	string(tags.TypeLanguage): {},
}

var validReportTypes = map[string]struct{}{
	report.TypeWrongMovie: {},
	report.TypeBadQuality: {},
	report.TypeNoSound:    {},
	report.TypeOther:      {},
}

// ParseCallback разбирает callback-данные. Любое отклонение от ожидаемой
// формы — явная ошибка, а не молчаливый неверный разбор.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, ":")

	switch CallbackKind(parts[0]) {
	case CallbackMovie:
		if len(parts) != 2 || !reCode.MatchString(parts[1]) {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return Callback{Kind: CallbackMovie, Code: parts[1]}, nil

	case CallbackTag:
		if len(parts) != 4 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		if _, ok := validTagTypes[parts[1]]; !ok {
			return Callback{}, fmt.Errorf("%w: unknown tag type in %q", ErrBadCallback, data)
		}
		if parts[2] == "" {
			return Callback{}, fmt.Errorf("%w: empty tag value in %q", ErrBadCallback, data)
		}
		page, err := parsePage(parts[3])
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return Callback{Kind: CallbackTag, TagType: parts[1], TagValue: parts[2], Page: page}, nil

	case CallbackRecent, CallbackTop:
		if len(parts) != 2 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		page, err := parsePage(parts[1])
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return Callback{Kind: CallbackKind(parts[0]), Page: page}, nil

	case CallbackReport:
		if len(parts) != 3 || !reCode.MatchString(parts[1]) {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		if _, ok := validReportTypes[parts[2]]; !ok {
			return Callback{}, fmt.Errorf("%w: unknown report type in %q", ErrBadCallback, data)
		}
		return Callback{Kind: CallbackReport, Code: parts[1], ReportType: parts[2]}, nil

	case CallbackCheckJoin:
		if len(parts) != 1 {
			return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
		}
		return Callback{Kind: CallbackCheckJoin}, nil

	default:
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
}

// Encode собирает callback-данные обратно в строку.
func (c Callback) Encode() string {
	switch c.Kind {
	case CallbackMovie:
		return fmt.Sprintf("movie:%s", c.Code)
	case CallbackTag:
		return fmt.Sprintf("tag:%s:%s:%d", c.TagType, c.TagValue, c.Page)
	case CallbackRecent, CallbackTop:
		return fmt.Sprintf("%s:%d", c.Kind, c.Page)
	case CallbackReport:
		return fmt.Sprintf("report:%s:%s", c.Code, c.ReportType)
	case CallbackCheckJoin:
		return "check-join"
	default:
		return ""
	}
}

func parsePage(s string) (int, error) {
	page, err := strconv.Atoi(s)
	if err != nil || page < 0 {
		return 0, ErrBadCallback
	}
	return page, nil
}
