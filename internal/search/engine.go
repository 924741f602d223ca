package search

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"kinokod/internal/catalog"
	"kinokod/internal/tags"
)

// Hit — один результат поиска.
type Hit struct {
	Code  string
	Title string
}

// Количество результатов на выдачу.
const maxHits = 10

// Engine ранжирует записи каталога по свободному текстовому запросу.
// Только чтение, детерминирован для фиксированного снимка каталога.
type Engine struct {
	index *catalog.Index
	log   *zap.Logger
}

func New(index *catalog.Index, log *zap.Logger) *Engine {
	return &Engine{index: index, log: log}
}

// Ярусы ранжирования, меньше — лучше.
const (
	tierExactCode = iota + 1
	tierExactClean
	tierExactTitle
	tierCleanPrefix
	tierTitlePrefix
	tierCaption
	tierOther
)

// Search возвращает до 10 результатов. Точное совпадение кода замыкает поиск
// на единственной записи. Пустой запрос даёт пустую выдачу, не ошибку.
func (e *Engine) Search(ctx context.Context, query string) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	if movie, err := e.index.GetByCode(ctx, query); err == nil {
		return []Hit{{Code: movie.Code, Title: movie.Title}}, nil
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return nil, err
	}

	clean := tags.Normalize(query)

	candidates, err := e.index.SearchCandidates(ctx, query, clean)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		movie catalog.Movie
		tier  int
	}

	var matches []ranked
	for _, m := range candidates {
		if !matched(m, query, clean) {
			continue
		}
		matches = append(matches, ranked{movie: m, tier: tier(m, query, clean)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].tier != matches[j].tier {
			return matches[i].tier < matches[j].tier
		}
		return matches[i].movie.Views > matches[j].movie.Views
	})

	if len(matches) > maxHits {
		matches = matches[:maxHits]
	}

	hits := make([]Hit, 0, len(matches))
	for _, r := range matches {
		hits = append(hits, Hit{Code: r.movie.Code, Title: r.movie.Title})
	}

	e.log.Debug("search done", zap.String("query", query), zap.Int("hits", len(hits)))
	return hits, nil
}

// matched повторяет условия отбора кандидатов точно: подстрока в clean_title
// или подписи (нормализованный запрос), в title или коде (сырой запрос).
func matched(m catalog.Movie, query, clean string) bool {
	if clean != "" {
		if strings.Contains(m.CleanTitle, clean) {
			return true
		}
		if strings.Contains(strings.ToLower(m.Caption), clean) {
			return true
		}
	}
	return strings.Contains(m.Title, query) || strings.Contains(m.Code, query)
}

func tier(m catalog.Movie, query, clean string) int {
	switch {
	case m.Code == query:
		return tierExactCode
	case clean != "" && m.CleanTitle == clean:
		return tierExactClean
	case m.Title == query:
		return tierExactTitle
	case clean != "" && strings.HasPrefix(m.CleanTitle, clean):
		return tierCleanPrefix
	case strings.HasPrefix(m.Title, query):
		return tierTitlePrefix
	case clean != "" && strings.Contains(strings.ToLower(m.Caption), clean):
		return tierCaption
	default:
		return tierOther
	}
}
