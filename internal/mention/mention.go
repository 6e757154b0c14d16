// Package mention implements @-tagging in progress updates.
package mention

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nhle/bod-watchlist/internal/model"
)

// Trigger returns the byte offset of the last '@' in text when it starts a
// token, that is when it is the first character or follows whitespace.
func Trigger(text string) (int, bool) {
	at := strings.LastIndex(text, "@")
	if at < 0 {
		return -1, false
	}
	if at == 0 {
		return 0, true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:at])
	return at, unicode.IsSpace(prev)
}

// Query returns the partial name typed after an active trigger.
func Query(text string) string {
	at, ok := Trigger(text)
	if !ok {
		return ""
	}
	return text[at+1:]
}

// Apply replaces everything from the trigger '@' with "@<name> ".
// Text without an active trigger is returned unchanged.
func Apply(text string, user model.User) string {
	at, ok := Trigger(text)
	if !ok {
		return text
	}
	return text[:at] + "@" + user.Name + " "
}

// Candidates filters roster down to users whose name or username contains
// query, case-insensitively. An empty query returns the whole roster.
func Candidates(roster []model.User, query string) []model.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return roster
	}
	var out []model.User
	for _, u := range roster {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out
}

// Set is an ordered, deduplicated set of mentioned user ids.
type Set struct {
	ids  []int64
	seen map[int64]bool
}

// Add records id unless it is already present.
func (s *Set) Add(id int64) {
	if s.seen == nil {
		s.seen = make(map[int64]bool)
	}
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.ids = append(s.ids, id)
}

// IDs returns the ids in order of first mention.
func (s *Set) IDs() []int64 {
	out := make([]int64, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of distinct mentions.
func (s *Set) Len() int { return len(s.ids) }

// Reset clears the set.
func (s *Set) Reset() {
	s.ids = nil
	s.seen = nil
}

// Resolve deduplicates ids preserving first occurrence and drops ids that
// are not on the roster. If roster is empty all ids are kept.
func Resolve(ids []int64, roster []model.User) []int64 {
	known := make(map[int64]bool, len(roster))
	for _, u := range roster {
		known[u.ID] = true
	}

	var set Set
	for _, id := range ids {
		if len(known) > 0 && !known[id] {
			continue
		}
		set.Add(id)
	}
	return set.IDs()
}
