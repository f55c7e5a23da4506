// Package display computes secondary patient-facing views from a Record at
// read time. Everything here is a pure function: no storage, no side
// effects, safe to call on every render.
package display

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// ChronicEntry is one line of chronic medication derived from the free-text
// treatment plan. Key is derived from the entry text so external
// completion-toggle state survives reordering of unrelated lines; Index is
// the entry's position in the current render.
type ChronicEntry struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Text  string `json:"text"`
}

// ExtractChronicMedications scans the treatment narrative line by line for
// a marker line containing "continue" (case-insensitive). Every non-blank
// line after the marker becomes an entry, except restatements of the
// "chronic medication" section header. Without a marker line the result is
// empty. Line order is preserved.
func ExtractChronicMedications(treatment string) []ChronicEntry {
	lines := strings.Split(treatment, "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), "continue") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return []ChronicEntry{}
	}

	entries := []ChronicEntry{}
	seen := map[string]int{}
	for _, line := range lines[start:] {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if strings.Contains(strings.ToLower(text), "chronic medication") {
			continue
		}
		norm := strings.ToLower(text)
		ordinal := seen[norm]
		seen[norm]++
		entries = append(entries, ChronicEntry{
			Index: len(entries),
			Key:   entryKey(norm, ordinal),
			Text:  text,
		})
	}
	return entries
}

// entryKey hashes the normalized entry text plus its duplicate ordinal, so
// two identical lines still get distinct keys.
func entryKey(norm string, ordinal int) string {
	h := fnv.New64a()
	h.Write([]byte(norm))
	fmt.Fprintf(h, "#%d", ordinal)
	return fmt.Sprintf("%016x", h.Sum64())
}

const (
	slotMorning   = "09:00 AM"
	slotAfternoon = "02:00 PM"
	slotNight     = "09:00 PM"
	slotEvening   = "10:00 PM"
	slotEarly     = "07:00 AM"
)

// timingRule maps a case-insensitive substring of a timing description to a
// fixed clock display. Rules are checked in order; the first match wins.
type timingRule struct {
	contains string
	display  string
}

var timingRules = []timingRule{
	{"after dinner", slotEvening},
	{"once a night", slotEvening},
	{"two times a day", slotMorning + " & " + slotNight},
	{"three times a day", slotMorning + " & " + slotAfternoon + " & " + slotNight},
	{"before breakfast", slotEarly},
	{"once a morning", slotMorning},
	{"1-1-1", slotMorning + " & " + slotAfternoon + " & " + slotNight},
	{"1-0-1", slotMorning + " & " + slotNight},
	{"0-0-1", slotEvening},
	{"1-0-0", slotMorning},
}

// MapTimingToClock converts a medication timing description to a human
// clock display, or "" when no rule matches.
func MapTimingToClock(timing string) string {
	lower := strings.ToLower(timing)
	for _, rule := range timingRules {
		if strings.Contains(lower, rule.contains) {
			return rule.display
		}
	}
	return ""
}
