package stubserver

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// FormatString applies the named text conversion, mirroring the formatter
// tool of the production backend. The where_in and values_insert types treat
// each non-empty input line as one value.
func FormatString(input, formatType string) (string, error) {
	switch formatType {
	case "base64_encode":
		return base64.StdEncoding.EncodeToString([]byte(input)), nil
	case "base64_decode":
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
		if err != nil {
			return "", fmt.Errorf("invalid base64 input: %w", err)
		}
		return string(decoded), nil
	case "upper":
		return strings.ToUpper(input), nil
	case "lower":
		return strings.ToLower(input), nil
	case "where_in":
		values := splitLines(input)
		if len(values) == 0 {
			return "", fmt.Errorf("no values in input")
		}
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return "WHERE column IN (" + strings.Join(quoted, ", ") + ")", nil
	case "values_insert":
		values := splitLines(input)
		if len(values) == 0 {
			return "", fmt.Errorf("no values in input")
		}
		rows := make([]string, len(values))
		for i, v := range values {
			rows[i] = "('" + strings.ReplaceAll(v, "'", "''") + "')"
		}
		return "VALUES " + strings.Join(rows, ", "), nil
	default:
		return "", fmt.Errorf("unknown format type %q", formatType)
	}
}

func splitLines(input string) []string {
	var out []string
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
