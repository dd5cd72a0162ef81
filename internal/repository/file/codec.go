package file

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-console/internal/model"
)

const (
	delimiter = ','
	escapeCh  = '\\'
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`,`, `\,`,
	"\n", `\n`,
	"\r", `\r`,
)

func escape(s string) string {
	return escaper.Replace(s)
}

// joinFields builds one record line. Every field is escaped, so values may
// contain the delimiter.
func joinFields(fields ...string) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(delimiter)
		}
		b.WriteString(escape(f))
	}
	return b.String()
}

// splitFields splits a record line on unescaped delimiters and unescapes
// each field. Unknown escape sequences are kept verbatim, so most text from
// older files, which only escaped the delimiter, reads back unchanged. A
// literal backslash followed by n or r in such a file, as in C:\notes, is
// indistinguishable from an escaped line break and decodes as one.
func splitFields(line string) []string {
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == escapeCh && i+1 < len(line):
			next := line[i+1]
			switch next {
			case delimiter, escapeCh:
				cur.WriteByte(next)
			case 'n':
				cur.WriteByte('\n')
			case 'r':
				cur.WriteByte('\r')
			default:
				cur.WriteByte(c)
				cur.WriteByte(next)
			}
			i++
		case c == delimiter:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func formatTime(t time.Time) string {
	return model.FormatDateTime(t)
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	return model.ParseDateTime(s, loc)
}

func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}
