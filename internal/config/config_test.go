package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseChannels(t *testing.T) {
	chans := parseChannels("-100123:@kanal, -100456:yopiq:private, bad, 12", zap.NewNop())
	assert.Len(t, chans, 2)

	assert.EqualValues(t, -100123, chans[0].ChannelID)
	assert.Equal(t, "@kanal", chans[0].Username)
	assert.False(t, chans[0].IsPrivate)

	// username без @ нормализуется, private-флаг распознаётся
	assert.EqualValues(t, -100456, chans[1].ChannelID)
	assert.Equal(t, "@yopiq", chans[1].Username)
	assert.True(t, chans[1].IsPrivate)
}

func TestParseIDList(t *testing.T) {
	assert.Equal(t, []int64{1, 42}, parseIDList("1, 42, oops,"))
	assert.Empty(t, parseIDList(""))
}

func TestParseIntDefaults(t *testing.T) {
	assert.Equal(t, 3, parseInt("", 3))
	assert.Equal(t, 7, parseInt("7", 3))
	assert.Equal(t, 3, parseInt("x", 3))
	assert.EqualValues(t, -100, parseInt64("-100", 0))
}
