package ledger

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Header is the first line of every ledger file.
const Header = "ID, Timestamp, Username, User_ID, Income, Expense, Description"

// TimeLayout is the timestamp format of the Timestamp column, in local time.
const TimeLayout = "2006-01-02 15:04:05"

const columns = 7

// FormatRow renders r as one ledger line without the trailing newline.
func FormatRow(r Record) string {
	return strings.Join([]string{
		strconv.FormatInt(r.ID, 10),
		r.Timestamp.In(time.Local).Format(TimeLayout),
		clean(r.Username),
		strconv.FormatInt(r.UserID, 10),
		formatAmount(r.Income),
		formatAmount(r.Expense),
		clean(r.Description),
	}, Separator)
}

// ParseRow reads a line written by FormatRow.
func ParseRow(line string) (Record, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\r\n"), Separator, columns)
	if len(parts) != columns {
		return Record{}, fmt.Errorf("ledger row: want %d columns, got %d", columns, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var (
		rec Record
		err error
	)
	if rec.ID, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return Record{}, fmt.Errorf("ledger row: id: %w", err)
	}
	if rec.Timestamp, err = time.ParseInLocation(TimeLayout, parts[1], time.Local); err != nil {
		return Record{}, fmt.Errorf("ledger row: timestamp: %w", err)
	}
	rec.Username = parts[2]
	if rec.UserID, err = strconv.ParseInt(parts[3], 10, 64); err != nil {
		return Record{}, fmt.Errorf("ledger row: user id: %w", err)
	}
	if rec.Income, err = decimal.NewFromString(parts[4]); err != nil {
		return Record{}, fmt.Errorf("ledger row: income: %w", err)
	}
	if rec.Expense, err = decimal.NewFromString(parts[5]); err != nil {
		return Record{}, fmt.Errorf("ledger row: expense: %w", err)
	}
	rec.Description = parts[6]
	return rec, nil
}

// Encode renders a complete ledger file: header plus one line per record.
func Encode(records []Record) []byte {
	var b bytes.Buffer
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, r := range records {
		b.WriteString(FormatRow(r))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Decode parses ledger file contents. Blank lines and the header are skipped.
func Decode(data []byte) ([]Record, error) {
	var records []Record
	for n, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" || isHeader(line) {
			continue
		}
		rec, err := ParseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// countRows counts data lines the same way Decode would see them.
func countRows(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" && !isHeader(line) {
			n++
		}
	}
	return n
}

func isHeader(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "ID,")
}

func formatAmount(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var cleaner = strings.NewReplacer(",", "", "\r", " ", "\n", " ")

func clean(s string) string {
	return strings.TrimSpace(cleaner.Replace(s))
}
