package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kinokod/internal/catalog"
)

func testEngine(t *testing.T) (*Engine, *catalog.Index) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&catalog.Movie{}, &catalog.MovieTag{}))

	ix := catalog.New(db, zap.NewNop())
	return New(ix, zap.NewNop()), ix
}

func TestSearch_RanksExactCleanTitleFirst(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, "A2", "f", "#nomi_Avatar 2", 0, 0)
	require.NoError(t, err)
	_, err = ix.Upsert(ctx, "A1", "f", "#nomi_Avatar", 0, 0)
	require.NoError(t, err)

	hits, err := e.Search(ctx, "avatar")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// точное совпадение нормализованного заголовка выше частичного
	assert.Equal(t, "A1", hits[0].Code)
	assert.Equal(t, "A2", hits[1].Code)
}

func TestSearch_TieBrokenByViews(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, "D1", "f", "#nomi_Dune qismi", 0, 0)
	require.NoError(t, err)
	_, err = ix.Upsert(ctx, "D2", "f", "#nomi_Dune davomi", 0, 0)
	require.NoError(t, err)
	require.NoError(t, ix.IncrementViews(ctx, "D2"))

	hits, err := e.Search(ctx, "dune")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "D2", hits[0].Code)
}

func TestSearch_ExactCodeShortCircuit(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, "A1", "f", "#nomi_Avatar", 0, 0)
	require.NoError(t, err)
	// "A1" — буквальная подстрока заголовка другой записи
	_, err = ix.Upsert(ctx, "B7", "f", "#nomi_Qism A1 maxsus", 0, 0)
	require.NoError(t, err)

	hits, err := e.Search(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A1", hits[0].Code)
}

func TestSearch_CaptionMatch(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, "M1", "f", "#nomi_Boshqa nom\nBu yerda Interstellar haqida", 0, 0)
	require.NoError(t, err)

	hits, err := e.Search(ctx, "interstellar")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "M1", hits[0].Code)
}

func TestSearch_EmptyQuery(t *testing.T) {
	e, _ := testEngine(t)

	for _, q := range []string{"", "   ", "\t\n"} {
		hits, err := e.Search(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, hits)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, "M1", "f", "#nomi_Avatar", 0, 0)
	require.NoError(t, err)

	hits, err := e.Search(ctx, "yoq-bunday-film")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_TruncatesToTen(t *testing.T) {
	e, ix := testEngine(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := ix.Upsert(ctx, fmt.Sprintf("S%02d", i), "f", fmt.Sprintf("#nomi_Seriya qism %d", i), 0, 0)
		require.NoError(t, err)
	}

	hits, err := e.Search(ctx, "seriya")
	require.NoError(t, err)
	assert.Len(t, hits, 10)
}
