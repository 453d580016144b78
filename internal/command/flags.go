package command

import (
	"fmt"
	"strconv"
	"strings"
)

// stringSlice is a repeatable string flag.
type stringSlice []string

func (s *stringSlice) String() string { return strings.Join(*s, ", ") }

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// keyValues is a repeatable key=value flag.
type keyValues map[string]any

func (kv keyValues) String() string {
	parts := make([]string, 0, len(kv))
	for k, v := range kv {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}

func (kv keyValues) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	kv[key] = value
	return nil
}

// parseArgs converts -arg values into driver parameters: integers, floats,
// true/false and NULL are typed, a double-quoted value is always a string,
// anything else is passed through as a string.
func parseArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, v := range raw {
		args[i] = parseArg(v)
	}
	return args
}

func parseArg(v string) any {
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		return v[1 : len(v)-1]
	}
	if strings.EqualFold(v, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if v == "true" || v == "false" {
		return v == "true"
	}
	return v
}
