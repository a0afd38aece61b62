package transcript

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// timedText is the JSON caption layout served for the json3 format.
type timedText struct {
	Events []struct {
		Segs []struct {
			UTF8 *string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Normalize converts a subtitle file into plain text.
//
// JSON documents with an "events" array yield one line per event with its
// segments joined by spaces. Other JSON is returned unchanged. Anything
// else is treated as VTT/SRT: cue numbers, timing lines and the WEBVTT
// header block are dropped and markup tags removed.
func Normalize(raw string) string {
	var probe map[string]json.RawMessage
	err := json.Unmarshal([]byte(raw), &probe)
	switch {
	case err == nil:
		if _, ok := probe["events"]; ok {
			return fromTimedText(raw)
		}
		return raw
	case json.Valid([]byte(raw)):
		return raw
	}
	return fromCues(raw)
}

func fromTimedText(raw string) string {
	var doc timedText
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return raw
	}

	var lines []string
	for _, ev := range doc.Events {
		var parts []string
		for _, seg := range ev.Segs {
			if seg.UTF8 == nil {
				continue
			}
			if s := strings.TrimSpace(*seg.UTF8); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func fromCues(raw string) string {
	rows := strings.Split(strings.TrimSpace(raw), "\n")

	start := 0
	if len(rows) > 0 && strings.HasPrefix(strings.TrimSpace(rows[0]), "WEBVTT") {
		// Header block runs until the first blank line.
		for start < len(rows) && strings.TrimSpace(rows[start]) != "" {
			start++
		}
	}

	var lines []string
	for _, row := range rows[start:] {
		row = strings.TrimRight(row, "\r")
		if row == "" || isDigits(row) || strings.Contains(row, "-->") {
			continue
		}
		text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(row, "")))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
