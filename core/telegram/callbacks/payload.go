package callbacks

import (
	"strconv"
	"strings"
)

// Int64Fields parses a sep-separated payload of integers. want bounds the
// accepted field counts; an empty want accepts any count.
func Int64Fields(payload, sep string, want ...int) ([]int64, error) {
	if payload == "" {
		return nil, strconv.ErrSyntax
	}
	parts := strings.Split(payload, sep)
	if len(want) > 0 {
		ok := false
		for _, n := range want {
			if len(parts) == n {
				ok = true
				break
			}
		}
		if !ok {
			return nil, strconv.ErrSyntax
		}
	}
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
