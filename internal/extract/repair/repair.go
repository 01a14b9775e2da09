// Package repair reconstructs structured shipment data from model output
// that failed strict parsing. It is used only by node variants requesting
// free-text output; schema-coerced responses never pass through here.
package repair

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errx "github.com/shipmentbot/server/internal/core/error"
	"github.com/shipmentbot/server/internal/extract/model"
	logx "github.com/shipmentbot/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxItems      = 500
)

// Repair tries progressively looser parsing strategies on raw model text:
//
//  1. strip a single fenced code block and parse the inner text as JSON;
//  2. parse the raw text as JSON directly;
//  3. line-oriented reconstruction of item records from markdown
//     headings and "key: value" bullets.
//
// It returns an Unparseable error only when all three strategies yield no
// record. For identical input the output is identical; there is no
// randomness in any strategy.
func Repair(raw string) (*model.Shipment, error) {
	if len(raw) > maxContentLen {
		logx.Warn().
			Str("component", "repair").
			Int("max_len", maxContentLen).
			Int("orig_len", len(raw)).
			Msg("content truncated due to size limit")
		raw = raw[:maxContentLen]
	}

	if inner, ok := ExtractFencedBlock(raw); ok {
		if s, err := parseJSON(inner); err == nil {
			return s, nil
		}
	}

	if s, err := parseJSON(raw); err == nil {
		return s, nil
	}

	if s := parseLines(raw); len(s.Items) > 0 {
		return s, nil
	}

	return nil, errx.Unparseable(fmt.Errorf("all repair strategies exhausted"))
}

// parseJSON accepts either a full shipment object or a bare item array.
func parseJSON(text string) (*model.Shipment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty input")
	}

	var s model.Shipment
	if err := json.Unmarshal([]byte(text), &s); err == nil && len(s.Items) > 0 {
		s.Normalize()
		return &s, nil
	}

	var items []model.ShipmentItem
	if err := json.Unmarshal([]byte(text), &items); err == nil && len(items) > 0 {
		return &model.Shipment{Items: items}, nil
	}

	return nil, fmt.Errorf("not a shipment json")
}

// parseLines scans the text line by line. A markdown heading opens a new
// item record, a bullet containing "key: value" assigns into the current
// record, and the final in-progress record is flushed at end of input.
func parseLines(raw string) *model.Shipment {
	s := &model.Shipment{Items: []model.ShipmentItem{}}

	var current *model.ShipmentItem
	flush := func() {
		if current != nil && len(s.Items) < maxItems {
			s.Items = append(s.Items, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"):
			flush()
			current = &model.ShipmentItem{}
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			if current == nil {
				// bullet before any heading still opens a record
				current = &model.ShipmentItem{}
			}
			key, value, ok := splitKeyValue(strings.TrimLeft(line, "-* "))
			if !ok {
				continue
			}
			assignField(current, key, value)
		}
	}
	flush()

	return s
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func assignField(item *model.ShipmentItem, key, value string) {
	switch key {
	case "name", "description":
		item.Name = model.Ptr(value)
	case "quantity":
		if n, ok := firstDigitRun(value); ok {
			item.Quantity = model.Ptr(n)
		}
	case "length":
		if n, ok := firstDigitRun(value); ok {
			item.Length = model.Ptr(n)
		}
	case "width":
		if n, ok := firstDigitRun(value); ok {
			item.Width = model.Ptr(n)
		}
	case "height":
		if n, ok := firstDigitRun(value); ok {
			item.Height = model.Ptr(n)
		}
	case "weight":
		if n, ok := firstDigitRun(value); ok {
			item.Weight = model.Ptr(n)
		}
	case "stackable":
		item.Stackable = model.Ptr(strings.EqualFold(value, "true"))
	case "load carrier", "load_carrier":
		if n, ok := leadingDigitRun(value); ok {
			item.LoadCarrier = model.Ptr(model.LoadCarrier(n))
		}
	}
}

// firstDigitRun extracts the first run of digits anywhere in s.
func firstDigitRun(s string) (int, bool) {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoi(s[start:i])
		}
	}
	if start >= 0 {
		return atoi(s[start:])
	}
	return 0, false
}

// leadingDigitRun extracts digits only from the start of s, so a value like
// "1 (pallet)" maps to 1 but "pallet (1)" does not match.
func leadingDigitRun(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	return atoi(s[:end])
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
