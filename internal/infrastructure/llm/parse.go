package llm

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"LaCarte/internal/domain"
)

// ErrUnparseable is returned when no strategy finds a JSON object in the model output.
var ErrUnparseable = errors.New("model response contains no JSON object")

// Strategy names the way a model response was turned into JSON.
type Strategy string

const (
	StrategyDirect    Strategy = "direct"
	StrategyExtracted Strategy = "extracted"
)

// Parsed is a successfully decoded model response keyed by post id.
type Parsed[T any] struct {
	Values   map[string]T
	Strategy Strategy
}

type extractor struct {
	strategy Strategy
	extract  func(string) []string
}

var extractors = []extractor{
	{strategy: StrategyDirect, extract: func(s string) []string { return []string{strings.TrimSpace(s)} }},
	{strategy: StrategyExtracted, extract: objectCandidates},
}

// ParseObject decodes a JSON object keyed by post id from free model text.
// Entries that decode fails on are dropped; the caller treats them as missing.
func ParseObject[T any](content string, decode func(json.RawMessage) (T, bool)) (Parsed[T], error) {
	for _, ex := range extractors {
		for _, candidate := range ex.extract(content) {
			var raw map[string]json.RawMessage
			if err := json.Unmarshal([]byte(candidate), &raw); err != nil || raw == nil {
				continue
			}

			values := make(map[string]T, len(raw))
			for id, value := range raw {
				if v, ok := decode(value); ok {
					values[id] = v
				}
			}
			return Parsed[T]{Values: values, Strategy: ex.strategy}, nil
		}
	}
	return Parsed[T]{}, ErrUnparseable
}

// objectCandidates returns the first balanced {...} span, then the widest
// first-'{' to last-'}' span as a looser second try.
func objectCandidates(content string) []string {
	var out []string
	if span, ok := firstBalancedObject(content); ok {
		out = append(out, span)
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		wide := content[start : end+1]
		if len(out) == 0 || out[0] != wide {
			out = append(out, wide)
		}
	}
	return out
}

func firstBalancedObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}
	return "", false
}

// decodeTone accepts a number or a numeric string and clamps it to [0,1].
func decodeTone(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return domain.Clamp01(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return domain.Clamp01(f), true
		}
	}
	return 0, false
}

// decodeTags accepts a list of strings or a comma separated string.
func decodeTags(raw json.RawMessage) ([]string, bool) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			return nil, false
		}
		list = strings.Split(joined, ",")
	}

	tags := make([]string, 0, len(list))
	for _, tag := range list {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags, true
}
