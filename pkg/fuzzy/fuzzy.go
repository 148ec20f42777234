package fuzzy

import "strings"

// LevenshteinDistance calculates the edit distance between two strings:
// how many single-character insertions, deletions or substitutions are
// required to turn one into the other.
func LevenshteinDistance(s1, s2 string) int {
	s1 = normalize(s1)
	s2 = normalize(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}
	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,
				d[i][j-1]+1,
				d[i-1][j-1]+cost,
			)
		}
	}

	return d[m][n]
}

// Match checks whether query fuzzy-matches text within the given edit
// distance threshold. Substrings and word prefixes always match.
func Match(query, text string, threshold int) bool {
	query = normalize(query)
	text = normalize(text)

	if strings.Contains(text, query) {
		return true
	}

	for _, word := range strings.Fields(text) {
		if LevenshteinDistance(query, word) <= threshold {
			return true
		}
		if strings.HasPrefix(word, query) {
			return true
		}
	}

	return false
}

// MatchEmail checks whether a stored email matches the query across
// subject, sender and snippet. The typo tolerance grows with query
// length.
func MatchEmail(query, subject, sender, snippet string) bool {
	threshold := 2
	if len(query) <= 3 {
		threshold = 1
	} else if len(query) >= 8 {
		threshold = 3
	}

	return Match(query, subject, threshold) ||
		Match(query, sender, threshold) ||
		Match(query, snippet, threshold)
}

// ScoreEmail ranks how relevant an email is to a query. Higher is more
// relevant. Subject matches outweigh sender matches, which outweigh
// snippet matches.
func ScoreEmail(query, subject, sender, snippet string) float64 {
	query = normalize(query)
	score := 0.0

	subjectNorm := normalize(subject)
	if strings.Contains(subjectNorm, query) {
		score += 100.0
		if containsWord(subjectNorm, query) {
			score += 50.0
		}
	} else {
		for _, word := range strings.Fields(subjectNorm) {
			dist := LevenshteinDistance(query, word)
			if dist <= 2 {
				score += 50.0 - float64(dist)*15
			}
			if strings.HasPrefix(word, query) {
				score += 40.0
			}
		}
	}

	senderNorm := normalize(sender)
	if strings.Contains(senderNorm, query) {
		score += 60.0
	} else {
		localPart := senderNorm
		if idx := strings.Index(senderNorm, "@"); idx > 0 {
			localPart = senderNorm[:idx]
		}
		if strings.HasPrefix(localPart, query) {
			score += 30.0
		}
	}

	snippetNorm := normalize(snippet)
	if strings.Contains(snippetNorm, query) {
		score += 40.0
	}

	return score
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// normalize lowercases and collapses whitespace
func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}
