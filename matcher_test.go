package dwpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/pathrules"
)

func TestArchiveMatcher_Default(t *testing.T) {
	t.Parallel()

	m, err := NewArchiveMatcher(MatcherOptions{})
	require.NoError(t, err)

	assert.True(t, m.Match("/game/data/chara00001.pac"))
	assert.True(t, m.Match(`C:\game\data\CHARA00001.PAC`))
	assert.True(t, m.Match("event/event12345.pac"))
	assert.False(t, m.Match("/game/data/sound.xwb"))
	assert.False(t, m.Match("/game/data/bgm.pac"))
	assert.False(t, m.Match("/game/data/chara0001.pac"))
	assert.False(t, m.Match("/game/data/00001.pac"))
	assert.False(t, m.Match(""))
}

func TestArchiveMatcher_ExcludeRule(t *testing.T) {
	t.Parallel()

	m, err := NewArchiveMatcher(MatcherOptions{
		Rules: []pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: "*.pac"},
			{Action: pathrules.ActionExclude, Pattern: "movie*.pac"},
		},
	})
	require.NoError(t, err)

	assert.True(t, m.Match("data/chara00001.pac"))
	assert.False(t, m.Match("data/movie00001.pac"))
}

func TestArchiveMatcher_InvalidRules(t *testing.T) {
	t.Parallel()

	_, err := NewArchiveMatcher(MatcherOptions{
		Rules: []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "  "}},
	})
	require.ErrorIs(t, err, ErrInvalidArchivePattern)

	var nilMatcher *ArchiveMatcher
	assert.False(t, nilMatcher.Match("a.pac"))
}
