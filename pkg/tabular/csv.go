package tabular

import (
	"strings"
)

// ParseCSV ingests delimited text. Quoted fields may contain the delimiter,
// embedded quotes are escaped by doubling, and unquoted fields are trimmed.
// Stray quotes never fail the parse; they are kept literally. Empty lines
// are skipped and do not count as rows.
func ParseCSV(data []byte, opts Options) (*Table, error) {
	delim := opts.delimiter()

	var records [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, splitLine(line, delim))
	}

	return buildTable(records, opts.TreatFirstRowAsData)
}

// splitLine splits one line into fields. A field starting with a quote runs
// until its closing quote; anything between the closing quote and the next
// delimiter is kept literally. An unterminated quote consumes the rest of
// the line.
func splitLine(line string, delim rune) []string {
	fields := make([]string, 0, 8)
	rs := []rune(line)
	n := len(rs)
	i := 0

	for {
		var sb strings.Builder

		start := i
		for start < n && rs[start] != delim && (rs[start] == ' ' || rs[start] == '\t') {
			start++
		}

		if start < n && rs[start] == '"' {
			i = start + 1
			for i < n {
				if rs[i] == '"' {
					if i+1 < n && rs[i+1] == '"' {
						sb.WriteRune('"')
						i += 2
						continue
					}
					i++
					break
				}
				sb.WriteRune(rs[i])
				i++
			}
			var tail strings.Builder
			for i < n && rs[i] != delim {
				tail.WriteRune(rs[i])
				i++
			}
			sb.WriteString(strings.TrimSpace(tail.String()))
			fields = append(fields, sb.String())
		} else {
			for i < n && rs[i] != delim {
				sb.WriteRune(rs[i])
				i++
			}
			fields = append(fields, strings.TrimSpace(sb.String()))
		}

		if i >= n {
			break
		}
		i++ // delimiter
		if i >= n {
			fields = append(fields, "")
			break
		}
	}

	return fields
}
