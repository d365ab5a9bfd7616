// Package fuzzy normalizes artist and title strings and scores how closely
// two tracks match.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	bracketedFeatRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(?:feat\.?|ft\.?|featuring)\s[^\)\]]*[\)\]]`)
	trailingFeatRegex  = regexp.MustCompile(`(?i)\s+(?:feat\.?|ft\.?|featuring)\s.*$`)
	bracketedTagRegex  = regexp.MustCompile(
		`(?i)\s*[\(\[][^\)\]]*(?:remix|remaster(?:ed)?|deluxe|extended|edit|mix|version|live)[^\)\]]*[\)\]]`)
	dashedTagRegex = regexp.MustCompile(
		`(?i)\s+-\s+[^-]*(?:remix|remaster(?:ed)?|deluxe|extended|edit|mix|version|live)[^-]*$`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s&]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	// artistWeight is the share of the match score given to the artist.
	artistWeight = 0.4
	// titleWeight is the share of the match score given to the title.
	titleWeight = 0.6
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeArtist lowercases, strips accents and punctuation, and unifies
// the common "and" spelling of collaborations.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.basicNormalize(artist)
	artist = strings.ReplaceAll(" "+artist+" ", " and ", " & ")
	return strings.TrimSpace(artist)
}

// NormalizeTitle removes featured artists and version tags before the
// basic normalization, so "Song (Radio Edit)" and "Song" compare equal.
func (n *Normalizer) NormalizeTitle(title string) string {
	title = bracketedFeatRegex.ReplaceAllString(title, "")
	title = trailingFeatRegex.ReplaceAllString(title, "")
	title = bracketedTagRegex.ReplaceAllString(title, "")
	title = dashedTagRegex.ReplaceAllString(title, "")
	return n.basicNormalize(title)
}

func (n *Normalizer) basicNormalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return strings.TrimSpace(strings.ToLower(text))
}

// CalculateSimilarity returns the longest common subsequence ratio of two
// already normalized strings, between 0 and 1.
func (n *Normalizer) CalculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if s1 == "" || s2 == "" {
		return 0.0
	}

	return float64(n.longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

// MatchScore compares a wanted track against a candidate. An empty wanted
// artist scores the title alone.
func (n *Normalizer) MatchScore(wantArtist, wantTitle, gotArtist, gotTitle string) float64 {
	titleScore := n.CalculateSimilarity(n.NormalizeTitle(wantTitle), n.NormalizeTitle(gotTitle))
	if strings.TrimSpace(wantArtist) == "" {
		return titleScore
	}

	artistScore := n.CalculateSimilarity(n.NormalizeArtist(wantArtist), n.NormalizeArtist(gotArtist))
	return artistWeight*artistScore + titleWeight*titleScore
}

func (n *Normalizer) longestCommonSubsequence(s1, s2 string) int {
	rows, cols := len(s1), len(s2)
	prev := make([]int, cols+1)
	curr := make([]int, cols+1)

	for i := 1; i <= rows; i++ {
		for j := 1; j <= cols; j++ {
			if s1[i-1] == s2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[cols]
}
