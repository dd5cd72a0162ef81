package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "1,2,3", []string{"1", "2", "3"}},
		{"escaped delimiter", `1,pain\, fever,x`, []string{"1", "pain, fever", "x"}},
		{"escaped backslash", `a\\,b`, []string{`a\`, "b"}},
		{"escaped newline", `line1\nline2`, []string{"line1\nline2"}},
		{"trailing empty fields", "1,,", []string{"1", "", ""}},
		{"unknown escape kept", `C:\temp`, []string{`C:\temp`}},
		{"dangling backslash kept", `abc\`, []string{`abc\`}},
		{"legacy backslash n reads as line break", `C:\notes`, []string{"C:\notes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitFields(tt.line))
		})
	}
}

func TestJoinFields_SplitsBack(t *testing.T) {
	fields := []string{"7", `back\slash`, "a,b,c", "two\nlines", "cr\rhere", ""}

	line := joinFields(fields...)

	assert.NotContains(t, line, "\n")
	assert.Equal(t, fields, splitFields(line))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2030-01-01T09:00",
		formatTime(time.Date(2030, 1, 1, 9, 0, 0, 0, time.Local)))
	assert.Equal(t, "2030-01-01T09:00:30",
		formatTime(time.Date(2030, 1, 1, 9, 0, 30, 0, time.Local)))
	assert.Equal(t, "2030-01-01T09:00:30.5",
		formatTime(time.Date(2030, 1, 1, 9, 0, 30, 500_000_000, time.Local)))
}

func TestParseTime(t *testing.T) {
	loc := time.Local
	for _, in := range []string{"2030-01-01T09:00", "2030-01-01T09:00:00", " 2030-01-01T09:00:00.000 "} {
		got, err := parseTime(in, loc)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(time.Date(2030, 1, 1, 9, 0, 0, 0, loc)), in)
	}

	_, err := parseTime("01/01/2030 09:00", loc)
	assert.Error(t, err)
}
