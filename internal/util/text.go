package util

import (
	"strings"
)

// ExtractMentions extracts @username mentions from text content.
// Returns unique usernames (lowercase, without the @ symbol).
func ExtractMentions(content string) []string {
	var mentions []string
	seen := make(map[string]bool)

	for _, word := range strings.Fields(content) {
		if !strings.HasPrefix(word, "@") || len(word) == 1 {
			continue
		}
		username := strings.TrimPrefix(word, "@")
		username = strings.TrimRight(username, ".,!?;:")
		username = strings.ToLower(username)

		if !seen[username] && len(username) >= 3 && len(username) <= 30 {
			seen[username] = true
			mentions = append(mentions, username)
		}
	}
	return mentions
}

// NormalizeTags lowercases, trims, and dedupes tag names, dropping empties.
// Order of first appearance is preserved.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
