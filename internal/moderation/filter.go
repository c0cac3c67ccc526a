// Package moderation redacts banned words from chat text.
package moderation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// DefaultMask replaces every banned-word occurrence regardless of its length.
const DefaultMask = "****"

var ErrEmptyWord = errors.New("moderation: empty word")

// snapshot is an immutable word set with its automaton. matcher is nil when
// the set is empty.
type snapshot struct {
	words   map[string]struct{}
	matcher *goahocorasick.Machine
}

// Filter is the banned-word set plus the redaction applied to each broadcast.
// Matching is case-insensitive and does not respect word boundaries: a banned
// word is masked even inside a longer word.
type Filter struct {
	mu   sync.RWMutex
	cur  *snapshot
	mask string
}

func NewFilter(words []string, mask string) (*Filter, error) {
	if mask == "" {
		mask = DefaultMask
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = Normalize(w); w != "" {
			set[w] = struct{}{}
		}
	}
	s, err := build(set)
	if err != nil {
		return nil, err
	}
	return &Filter{cur: s, mask: mask}, nil
}

// Filter masks every banned word found in text.
func (f *Filter) Filter(text string) string {
	f.mu.RLock()
	s := f.cur
	f.mu.RUnlock()

	if s.matcher == nil || text == "" {
		return text
	}

	orig := []rune(text)
	lower := make([]rune, len(orig))
	for i, r := range orig {
		lower[i] = unicode.ToLower(r)
	}

	terms := s.matcher.MultiPatternSearch(lower, false)
	if len(terms) == 0 {
		return text
	}

	spans := make([][2]int, 0, len(terms))
	for _, t := range terms {
		start, end := t.Pos, t.Pos+len(t.Word)
		if start < 0 || end > len(orig) {
			continue
		}
		spans = append(spans, [2]int{start, end})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for i := 0; i < len(spans); {
		start, end := spans[i][0], spans[i][1]
		i++
		// overlapping matches collapse into one mask
		for i < len(spans) && spans[i][0] < end {
			end = max(end, spans[i][1])
			i++
		}
		b.WriteString(string(orig[pos:start]))
		b.WriteString(f.mask)
		pos = end
	}
	b.WriteString(string(orig[pos:]))
	return b.String()
}

// Add inserts word (lower-cased) and reports whether the set changed.
func (f *Filter) Add(word string) (bool, error) {
	word = Normalize(word)
	if word == "" {
		return false, ErrEmptyWord
	}
	return f.mutate(func(set map[string]struct{}) bool {
		if _, ok := set[word]; ok {
			return false
		}
		set[word] = struct{}{}
		return true
	})
}

// Remove deletes word (lower-cased) and reports whether the set changed.
func (f *Filter) Remove(word string) (bool, error) {
	word = Normalize(word)
	if word == "" {
		return false, ErrEmptyWord
	}
	return f.mutate(func(set map[string]struct{}) bool {
		if _, ok := set[word]; !ok {
			return false
		}
		delete(set, word)
		return true
	})
}

// Words returns the banned words sorted.
func (f *Filter) Words() []string {
	f.mu.RLock()
	s := f.cur
	f.mu.RUnlock()
	words := lo.Keys(s.words)
	sort.Strings(words)
	return words
}

func (f *Filter) mutate(change func(map[string]struct{}) bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := make(map[string]struct{}, len(f.cur.words)+1)
	for w := range f.cur.words {
		set[w] = struct{}{}
	}
	if !change(set) {
		return false, nil
	}
	s, err := build(set)
	if err != nil {
		return false, err
	}
	f.cur = s
	return true, nil
}

func build(set map[string]struct{}) (*snapshot, error) {
	if len(set) == 0 {
		return &snapshot{words: set}, nil
	}
	words := lo.Keys(set)
	sort.Strings(words)
	patterns := lo.Map(words, func(w string, _ int) []rune { return []rune(w) })
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("moderation: build matcher: %w", err)
	}
	return &snapshot{words: set, matcher: m}, nil
}

// Normalize is the canonical form of a banned word.
func Normalize(word string) string {
	return strings.Map(unicode.ToLower, strings.TrimSpace(word))
}
