package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_MarkerCaption(t *testing.T) {
	res := Extract("#nomi_Avatar #Drama #2024 #1080p", 1)

	assert.Equal(t, "Avatar", res.Title)
	assert.Equal(t, "avatar", res.CleanTitle)
	assert.ElementsMatch(t, []Tag{
		{Type: TypeGenre, Value: "Drama"},
		{Type: TypeYear, Value: "2024"},
		{Type: TypeQuality, Value: "1080P"},
	}, res.Tags)
}

func TestExtract_MarkerVariants(t *testing.T) {
	cases := []struct {
		caption string
		title   string
	}{
		{"#nomi_Avatar", "Avatar"},
		{"#NOMI:Avatar", "Avatar"},
		{"#nazar Dune 2\nboshqa matn", "Dune 2"},
		{"matn oldin #nomi_Terminator #RU", "Terminator"},
	}
	for _, c := range cases {
		res := Extract(c.caption, 1)
		assert.Equal(t, c.title, res.Title, "caption: %q", c.caption)
	}
}

func TestExtract_FirstLineFallback(t *testing.T) {
	res := Extract("Qasoskorlar: Final #Jangari #AQSH", 1)
	assert.Equal(t, "Qasoskorlar: Final", res.Title)
	assert.Equal(t, "qasoskorlar final", res.CleanTitle)
	assert.ElementsMatch(t, []Tag{
		{Type: TypeGenre, Value: "Jangari"},
		{Type: TypeCountry, Value: "AQSH"},
	}, res.Tags)
}

func TestExtract_SyntheticTitle(t *testing.T) {
	// Пустая подпись и строки короче 4 символов не дают заголовка
	for _, caption := range []string{"", "ok", "#2023", "ab\ncd"} {
		res := Extract(caption, 7)
		assert.Equal(t, "Video #VID0007", res.Title, "caption: %q", caption)
	}
}

func TestExtract_TitleTruncated(t *testing.T) {
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'a'
	}
	res := Extract("#nomi_"+string(long), 1)
	assert.Len(t, []rune(res.Title), 100)
}

func TestExtract_Deterministic(t *testing.T) {
	caption := "#nomi_Avatar #Drama #Drama #2024 #UZ #qandaydir_token"
	first := Extract(caption, 3)
	second := Extract(caption, 3)
	require.Equal(t, first, second)

	// Дубликаты (тип, значение) схлопываются
	count := 0
	for _, tag := range first.Tags {
		if tag == (Tag{Type: TypeGenre, Value: "Drama"}) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClassify_Year(t *testing.T) {
	for token, want := range map[string]bool{
		"2010": true,
		"2025": true,
		"2009": false,
		"2026": false,
		"198":  false,
		"20244": false,
	} {
		tag, ok := Classify(token)
		assert.Equal(t, want, ok, "token %q", token)
		if want {
			assert.Equal(t, TypeYear, tag.Type)
			assert.Equal(t, token, tag.Value)
		}
	}
}

func TestClassify_CanonicalSpelling(t *testing.T) {
	tag, ok := Classify("DRAMA")
	require.True(t, ok)
	assert.Equal(t, Tag{Type: TypeGenre, Value: "Drama"}, tag)

	tag, ok = Classify("1080p")
	require.True(t, ok)
	assert.Equal(t, Tag{Type: TypeQuality, Value: "1080P"}, tag)
}

// Двустороннее вхождение: короткий токен совпадает с длинным словом словаря.
// Поведение зафиксировано намеренно.
func TestClassify_ShortTokenContainment(t *testing.T) {
	tag, ok := Classify("melodrama_2024")
	require.True(t, ok)
	// "drama" входит в токен раньше, чем очередь доходит до "Melodrama"
	assert.Equal(t, Tag{Type: TypeGenre, Value: "Drama"}, tag)

	tag, ok = Classify("uz")
	require.True(t, ok)
	assert.Equal(t, Tag{Type: TypeLanguage, Value: "UZ"}, tag)
}

func TestClassify_Unknown(t *testing.T) {
	_, ok := Classify("qwerty123")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "avatar 2 suv yo li", Normalize("Avatar-2:  Suv yo'li!"))
	assert.Equal(t, "", Normalize("!!! ---"))
	assert.Equal(t, "abc 123", Normalize("ABC_123"))
}
