package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("kitten", "kitten"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 5, LevenshteinDistance("", "hello"))
	assert.Equal(t, 4, LevenshteinDistance("abcd", ""))
	// Case-insensitive via normalization
	assert.Equal(t, 0, LevenshteinDistance("Hello", "hello"))
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("invoice", "Your invoice for March", 2))
	assert.True(t, Match("invoce", "Your invoice for March", 2)) // typo
	assert.True(t, Match("inv", "invoice attached", 1))          // prefix
	assert.False(t, Match("payroll", "Your invoice for March", 2))
}

func TestMatchEmail(t *testing.T) {
	assert.True(t, MatchEmail("meeting", "Team meeting notes", "boss@corp.com", "agenda attached"))
	assert.True(t, MatchEmail("jane", "No subject", "jane.doe@corp.com", ""))
	assert.True(t, MatchEmail("agenda", "Weekly sync", "x@y.com", "the agenda for tomorrow"))
	assert.False(t, MatchEmail("zzzzzz", "Weekly sync", "x@y.com", "nothing relevant"))
}

func TestScoreEmailOrdersSubjectAboveSnippet(t *testing.T) {
	subjectHit := ScoreEmail("report", "Quarterly report", "a@b.com", "misc")
	snippetHit := ScoreEmail("report", "Hello", "a@b.com", "the report is attached")

	assert.Greater(t, subjectHit, snippetHit)
	assert.Greater(t, snippetHit, 0.0)
}
