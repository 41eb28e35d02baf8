package aggregation

import (
	"fmt"
	"time"
)

// toTime accepts native timestamps or their RFC 3339 text; nil stays nil
func toTime(v any) (*time.Time, error) {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = x
	case []byte:
		return toTime(string(x))
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, fmt.Errorf("unexpected timestamp %q: %w", x, err)
		}
		t = parsed
	default:
		return nil, fmt.Errorf("unexpected timestamp value of type %T", v)
	}
	t = t.UTC()
	return &t, nil
}

// toJSON returns the raw document of a json/jsonb result column
func toJSON(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, fmt.Errorf("unexpected aggregate value of type %T", v)
}
