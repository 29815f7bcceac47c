package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// getStringFromMap reads a (possibly dotted) path out of a decoded JSON
// map, returning def if any segment is missing or not a string.
func getStringFromMap(m map[string]interface{}, path string, def string) string {
	parts := strings.Split(path, ".")
	var cur interface{} = m

	for _, part := range parts {
		asMap, ok := cur.(map[string]interface{})
		if !ok {
			return def
		}
		cur, ok = asMap[part]
		if !ok {
			return def
		}
	}

	if s, ok := cur.(string); ok {
		return s
	}
	return def
}

// getMapFromMap reads a nested map[string]interface{} field, returning an
// empty map rather than nil when the field is absent or of another type.
func getMapFromMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if asMap, ok := v.(map[string]interface{}); ok {
			return asMap
		}
	}
	return map[string]interface{}{}
}

func unmarshalJSONString(s string, out interface{}) error {
	return json.Unmarshal([]byte(s), out)
}

// parseDatadogTimestamp reads Datadog's "date" field, which is a Unix
// timestamp in milliseconds, falling back to now when absent or malformed.
func parseDatadogTimestamp(payload map[string]interface{}) time.Time {
	raw, ok := payload["date"]
	if !ok {
		return time.Now()
	}

	switch v := raw.(type) {
	case float64:
		return time.UnixMilli(int64(v))
	case string:
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
	}

	return time.Now()
}
