package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riy-server/internal/waste"
)

func newBot(t *testing.T) *Bot {
	t.Helper()
	kb, _, err := waste.Load("")
	require.NoError(t, err)
	return NewBot(kb)
}

func TestRespond_Rules(t *testing.T) {
	bot := newBot(t)

	tests := []struct {
		message  string
		action   string
		material string
	}{
		{"Where can I recycle batteries?", ActionFindCenters, ""},
		{"Is there a recycling center near me? I want to recycle", ActionFindCenters, ""},
		{"Can I SCAN this?", ActionOpenScanner, ""},
		{"open the camera", ActionOpenScanner, ""},
		{"is glass recyclable", "", "glass"},
		{"plastic and glass", "", "plastic"},
		{"reuse old paper", "", "paper"},
		{"any DIY ideas?", ActionShowIdeas, ""},
		{"how do I reuse stuff", ActionShowIdeas, ""},
		{"hello", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			r, err := bot.Respond(tt.message)
			require.NoError(t, err)
			assert.NotEmpty(t, r.Reply)
			assert.Equal(t, tt.action, r.Action)
			assert.Equal(t, tt.material, r.Material)
		})
	}
}

func TestRespond_RecycleWithoutPlaceIsNotLocator(t *testing.T) {
	r, err := newBot(t).Respond("should I recycle metal")
	require.NoError(t, err)
	assert.Empty(t, r.Action)
	assert.Equal(t, "metal", r.Material)
	assert.Contains(t, r.Reply, "metal is recyclable")
}

func TestRespond_IdeasComeFromKnowledge(t *testing.T) {
	bot := newBot(t)
	r, err := bot.Respond("diy")
	require.NoError(t, err)

	require.Len(t, r.Ideas, 2)
	assert.Equal(t, bot.knowledge.Lookup(waste.Plastic).DIYIdeas[0], r.Ideas[0])
	assert.Equal(t, bot.knowledge.Lookup(waste.Metal).DIYIdeas[0], r.Ideas[1])
}

func TestRespond_Help(t *testing.T) {
	r, err := newBot(t).Respond("what's up")
	require.NoError(t, err)
	assert.Equal(t, helpReply, r.Reply)
	assert.Nil(t, r.Ideas)
}

func TestRespond_Empty(t *testing.T) {
	_, err := newBot(t).Respond("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
