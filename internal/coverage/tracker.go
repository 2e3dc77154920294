// Package coverage counts how many questions each required skill has received.
package coverage

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTargetMin = 5
	DefaultTargetMax = 7
)

// Range is the desired number of questions for a single skill.
type Range struct {
	Min int
	Max int
}

// DefaultRange is the usual per-skill question target.
func DefaultRange() Range {
	return Range{Min: DefaultTargetMin, Max: DefaultTargetMax}
}

// SkillCount is a snapshot entry for one skill.
type SkillCount struct {
	Skill  string
	Asked  int
	Target Range
}

// Reached reports whether the skill got at least the minimum target.
func (c SkillCount) Reached() bool {
	return c.Asked >= c.Target.Min
}

type entry struct {
	name   string
	target Range
	asked  int
}

// Tracker is not safe for concurrent use. Skill names compare case-insensitively.
type Tracker struct {
	entries map[string]*entry
	order   []string
	total   int
}

func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*entry)}
}

// RecordSkillTarget registers a skill with its target. A repeated call
// replaces the target and keeps the count.
func (t *Tracker) RecordSkillTarget(skill string, target Range) {
	key := normalize(skill)
	if key == "" {
		return
	}
	if target.Min < 0 {
		target.Min = 0
	}
	if target.Max < target.Min {
		target.Max = target.Min
	}
	if e, ok := t.entries[key]; ok {
		e.target = target
		return
	}
	t.entries[key] = &entry{name: strings.TrimSpace(skill), target: target}
	t.order = append(t.order, key)
}

// RecordAsked counts one question against the given skills. The total grows
// by one even when no skill is given. Unknown skills are ignored.
func (t *Tracker) RecordAsked(skills ...string) {
	t.total++
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		key := normalize(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if e, ok := t.entries[key]; ok {
			e.asked++
		}
	}
}

// IsCovered reports whether every registered skill reached its minimum target.
func (t *Tracker) IsCovered() bool {
	for _, e := range t.entries {
		if e.asked < e.target.Min {
			return false
		}
	}
	return true
}

func (t *Tracker) TotalAsked() int {
	return t.total
}

func (t *Tracker) Asked(skill string) int {
	if e, ok := t.entries[normalize(skill)]; ok {
		return e.asked
	}
	return 0
}

// Snapshot returns the per-skill counts in registration order.
func (t *Tracker) Snapshot() []SkillCount {
	out := make([]SkillCount, 0, len(t.order))
	for _, key := range t.order {
		e := t.entries[key]
		out = append(out, SkillCount{Skill: e.name, Asked: e.asked, Target: e.target})
	}
	return out
}

// Attribute returns the skills whose name appears as a whole word in the question text.
func Attribute(question string, skills []string) []string {
	text := strings.ToLower(question)
	var matched []string
	for _, skill := range skills {
		key := normalize(skill)
		if key == "" {
			continue
		}
		if containsWord(text, key) {
			matched = append(matched, strings.TrimSpace(skill))
		}
	}
	return matched
}

// Canonical maps each hint to the matching name from skills, dropping hints
// that match nothing.
func Canonical(hints, skills []string) []string {
	byKey := make(map[string]string, len(skills))
	for _, skill := range skills {
		byKey[normalize(skill)] = strings.TrimSpace(skill)
	}
	var out []string
	seen := make(map[string]struct{}, len(hints))
	for _, hint := range hints {
		key := normalize(hint)
		name, ok := byKey[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], word)
		if idx == -1 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
