package routing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/domain"
)

func TestContextWindowTruncatesOnRunes(t *testing.T) {
	long := strings.Repeat("ü", 400)
	window := contextWindow([]domain.ConversationTurn{
		{Role: domain.RoleUser, Text: long},
	}, 3)

	require.True(t, utf8.ValidString(window))
	assert.Contains(t, window, strings.Repeat("ü", 300)+"…")
	assert.NotContains(t, window, strings.Repeat("ü", 301))
}

func TestContextWindowEmptyHistory(t *testing.T) {
	assert.Equal(t, "(no prior conversation)\n", contextWindow(nil, 3))
}
