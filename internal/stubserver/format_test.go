package stubserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		formatType string
		want       string
		wantErr    string
	}{
		{name: "base64 encode", input: "abc", formatType: "base64_encode", want: "YWJj"},
		{name: "base64 decode", input: "YWJj", formatType: "base64_decode", want: "abc"},
		{name: "base64 decode trims whitespace", input: "  YWJj\n", formatType: "base64_decode", want: "abc"},
		{name: "base64 decode rejects garbage", input: "!!", formatType: "base64_decode", wantErr: "invalid base64"},
		{name: "upper", input: "select 1", formatType: "upper", want: "SELECT 1"},
		{name: "lower", input: "SELECT 1", formatType: "lower", want: "select 1"},
		{name: "where_in quotes each line", input: "a\nb", formatType: "where_in", want: "WHERE column IN ('a', 'b')"},
		{name: "where_in escapes quotes", input: "o'brien", formatType: "where_in", want: "WHERE column IN ('o''brien')"},
		{name: "where_in skips blank lines", input: "a\n\n  \nb\r\n", formatType: "where_in", want: "WHERE column IN ('a', 'b')"},
		{name: "where_in empty input", input: "\n\n", formatType: "where_in", wantErr: "no values"},
		{name: "values_insert", input: "a\nb", formatType: "values_insert", want: "VALUES ('a'), ('b')"},
		{name: "unknown type", input: "abc", formatType: "rot13", wantErr: "unknown format type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatString(tt.input, tt.formatType)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
