package jobclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/aleister1102/apifileprocessor/internal/config"
)

// encodeForm flattens job instructions into form fields. Scalars are sent as
// text, lists of scalars as repeated fields and anything nested as JSON.
// extra fields never override an instruction with the same key.
func encodeForm(instructions config.JobInstructions, extra map[string]string) (url.Values, error) {
	form := url.Values{}

	keys := make([]string, 0, len(instructions))
	for k := range instructions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := instructions[key]
		if list, ok := value.([]any); ok && allScalars(list) {
			for _, item := range list {
				s, _ := scalarString(item)
				form.Add(key, s)
			}
			continue
		}
		if s, ok := scalarString(value); ok {
			form.Set(key, s)
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("job instruction '%s' cannot be encoded: %w", key, err)
		}
		form.Set(key, string(encoded))
	}

	for key, value := range extra {
		if _, exists := form[key]; !exists {
			form.Set(key, value)
		}
	}
	return form, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func allScalars(list []any) bool {
	for _, item := range list {
		if _, ok := scalarString(item); !ok {
			return false
		}
	}
	return true
}
