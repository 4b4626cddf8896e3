// Copyright 2024 The UltraNode Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package effect

import (
	"fmt"
	"strconv"
	"strings"
)

// Params is an effect's positional parameter array as decoded from the
// command JSON's "params" field (spec §4.1: "a positional array of numbers
// or strings per the effect's documented schema"). encoding/json decodes a
// JSON array with mixed element types into []any with float64/string/bool
// elements, which is exactly the shape this models.
type Params []any

// Float returns the i'th parameter as a float64, or def if the index is
// out of range or the element isn't numeric. Effects call this and MUST
// silently keep prior latched state on a miss (spec §4.1: "safe to call
// with malformed parameters, silently retaining prior values").
func (p Params) Float(i int, def float64) float64 {
	if i < 0 || i >= len(p) {
		return def
	}
	switch v := p[i].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// Byte returns the i'th parameter clamped to [0, 255].
func (p Params) Byte(i int, def uint8) uint8 {
	f := p.Float(i, float64(def))
	return clampByte(f)
}

// String returns the i'th parameter as a string, or def otherwise.
func (p Params) String(i int, def string) string {
	if i < 0 || i >= len(p) {
		return def
	}
	if s, ok := p[i].(string); ok {
		return s
	}
	return def
}

// Len reports the number of supplied parameters.
func (p Params) Len() int { return len(p) }

func clampByte(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

// Color is a latched RGB triple.
type Color struct {
	R, G, B uint8
}

// ParseColor implements spec §4.2's color parameter convention: a hex
// string "#RRGGBB" and a 3-number [R,G,B] array both decode to the same
// latched color. It never errors — on any malformed input it returns
// (prev, false) so the caller can silently retain the previous color, per
// the same "safe to call with malformed parameters" rule every effect
// follows.
func ParseColor(p Params, prev Color) (Color, bool) {
	if p.Len() == 0 {
		return prev, false
	}
	if s, ok := p[0].(string); ok {
		c, err := parseHexColor(s)
		if err != nil {
			return prev, false
		}
		return c, true
	}
	if p.Len() >= 3 {
		return Color{p.Byte(0, prev.R), p.Byte(1, prev.G), p.Byte(2, prev.B)}, true
	}
	return prev, false
}

func parseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("effect: bad hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, err
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
