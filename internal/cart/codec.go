package cart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeLines serializes the cart as a JSON array of lines.
func EncodeLines(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// DecodeLines parses a cached cart. Lines without an id or with a
// non-positive quantity are dropped and duplicate ids are merged so the
// one-line-per-id invariant holds for whatever was on disk.
func DecodeLines(raw []byte) ([]Line, error) {
	var decoded []Line
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode cart: %w", ErrLoad, err)
	}
	return NormalizeLines(decoded), nil
}

// NormalizeLines enforces one line per id with quantity >= 1, keeping first
// occurrence order.
func NormalizeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		line.ID = strings.TrimSpace(line.ID)
		if line.ID == "" || line.Quantity < 1 {
			continue
		}
		if i, ok := index[line.ID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ID] = len(out)
		out = append(out, line)
	}
	return out
}
