package linecount

import (
	"encoding/csv"
	"fmt"
	"iter"
	"strings"
)

// Header is the canonical by-file diff header the parser feeds to encoding/csv.
const Header = "File,blank_same,blank_modified,blank_added,blank_removed," +
	"comment_same,comment_modified,comment_added,comment_removed," +
	"code_same,code_modified,code_added,code_removed"

const columns = 13

// Row is one file of tool output.
type Row struct {
	File  string
	Stats Stats
}

// ParseCSV consumes the tool's output lines, skipping everything before the
// tool's own header and the trailing SUM row. The first error from lines is
// returned as is.
func ParseCSV(lines iter.Seq2[string, error]) ([]Row, error) {
	var (
		body      []string
		inBody    bool
		skipFirst bool
	)
	for line, err := range lines {
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(line)
		if !inBody {
			if isHeader(trimmed) {
				inBody = true
				skipFirst = strings.HasPrefix(strings.ToLower(trimmed), "language,")
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "SUM,") {
			continue
		}
		body = append(body, trimmed)
	}
	if len(body) == 0 {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(Header + "\n" + strings.Join(body, "\n")))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing line counts: %w", err)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if skipFirst && len(rec) > columns {
			rec = rec[1:]
		}
		if len(rec) < columns {
			continue
		}
		var counts [12]Count
		for i := range counts {
			counts[i] = ParseCount(rec[i+1])
		}
		rows = append(rows, Row{
			File: strings.TrimSpace(rec[0]),
			Stats: Stats{
				Blank:   Delta{counts[0], counts[1], counts[2], counts[3]},
				Comment: Delta{counts[4], counts[5], counts[6], counts[7]},
				Code:    Delta{counts[8], counts[9], counts[10], counts[11]},
			},
		})
	}
	return rows, nil
}

func isHeader(line string) bool {
	lower := strings.ToLower(line)
	if !strings.HasPrefix(lower, "file,") && !strings.HasPrefix(lower, "language,") {
		return false
	}
	return strings.Contains(lower, "blank") && strings.Contains(lower, "code")
}
