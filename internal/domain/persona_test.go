package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsnest/nest-agent/internal/domain"
)

func TestPersonaByID(t *testing.T) {
	p, ok := domain.PersonaByID(domain.PersonaFlynn)
	require.True(t, ok)
	assert.Equal(t, "Flynn the Falcon", p.Name)
	assert.True(t, p.SupportsScoreboard)

	_, ok = domain.PersonaByID("owl")
	assert.False(t, ok)
}

func TestResolvePersonaFallsBackToHost(t *testing.T) {
	tests := []struct {
		raw  string
		want domain.PersonaID
	}{
		{"flynn", domain.PersonaFlynn},
		{"  PIXEL ", domain.PersonaPixel},
		{"Cato the Crane", domain.PersonaCato},
		{"agent-flynn", domain.PersonaFlynn},
		{"somebody else", domain.HostPersona},
		{"", domain.HostPersona},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ResolvePersona(tt.raw).ID, "raw=%q", tt.raw)
	}
}

func TestMatchPersonaKeywordsPriority(t *testing.T) {
	// Sports vocabulary wins even when host vocabulary is also present.
	p, ok := domain.MatchPersonaKeywords("any news about the NBA playoffs?")
	require.True(t, ok)
	assert.Equal(t, domain.PersonaFlynn, p.ID)

	p, ok = domain.MatchPersonaKeywords("what's new in AI this week")
	require.True(t, ok)
	assert.Equal(t, domain.PersonaPixel, p.ID)

	p, ok = domain.MatchPersonaKeywords("how does the election work")
	require.True(t, ok)
	assert.Equal(t, domain.PersonaCato, p.ID)

	_, ok = domain.MatchPersonaKeywords("tell me a joke")
	assert.False(t, ok)
}

func TestMatchPersonaKeywordsWordBoundaries(t *testing.T) {
	// "ai" must not fire inside other words.
	_, ok := domain.MatchPersonaKeywords("check your email again")
	assert.False(t, ok)

	p, ok := domain.MatchPersonaKeywords("is AI taking over?")
	require.True(t, ok)
	assert.Equal(t, domain.PersonaPixel, p.ID)
}
