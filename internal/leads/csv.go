package leads

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hugh/lead-hunter/internal/database/models"
)

// MaxImportSize caps an uploaded CSV file.
const MaxImportSize = 5 << 20

// CSVColumns is the export header and the set of columns understood on import.
var CSVColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "company", "city", "state",
	"source", "status", "score", "lead_value", "last_activity_at", "is_qualified", "created_at",
}

var requiredImportColumns = []string{"first_name", "last_name", "email"}

var (
	// ErrInvalidCSV wraps every failure caused by the file contents.
	ErrInvalidCSV = errors.New("invalid csv")
	ErrEmptyCSV   = fmt.Errorf("%w: file must have a header and at least one row", ErrInvalidCSV)
)

// RowError describes an import row that was skipped. Line is 1-based and
// counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParsedCSV holds the accepted leads and, at the same index in Lines, the
// file line each came from.
type ParsedCSV struct {
	Leads   []models.Lead
	Lines   []int
	Skipped []RowError
}

// ParseCSV reads leads from r. The header names columns by CSVColumns; order is
// free and unknown columns are ignored. Rows that cannot become a valid lead
// are reported in Skipped rather than failing the whole file.
func ParseCSV(r io.Reader) (*ParsedCSV, error) {
	reader := newReader(r)
	index, err := readHeader(reader)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedCSV{Skipped: []RowError{}}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				parsed.Skipped = append(parsed.Skipped, RowError{Line: line, Reason: parseErr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		lead, err := leadFromRow(get)
		if err != nil {
			parsed.Skipped = append(parsed.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		parsed.Leads = append(parsed.Leads, lead)
		parsed.Lines = append(parsed.Lines, line)
	}

	if len(parsed.Leads) == 0 && len(parsed.Skipped) == 0 {
		return nil, ErrEmptyCSV
	}

	return parsed, nil
}

// CheckHeader reports whether r starts with a usable header followed by at
// least one row, without parsing the rows.
func CheckHeader(r io.Reader) error {
	reader := newReader(r)
	if _, err := readHeader(reader); err != nil {
		return err
	}
	if _, err := reader.Read(); err == io.EOF {
		return ErrEmptyCSV
	}
	return nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

// readHeader maps lowercased column names to their position.
func readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrInvalidCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range requiredImportColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: header is missing column %q", ErrInvalidCSV, col)
		}
	}
	return index, nil
}

func leadFromRow(get func(string) string) (models.Lead, error) {
	lead := models.Lead{
		FirstName: get("first_name"),
		LastName:  get("last_name"),
		Email:     get("email"),
		Phone:     get("phone"),
		Company:   get("company"),
		City:      get("city"),
		State:     get("state"),
		Source:    models.LeadSource(strings.ToLower(get("source"))),
		Status:    models.LeadStatus(strings.ToLower(get("status"))),
	}

	for _, col := range requiredImportColumns {
		if get(col) == "" {
			return lead, fmt.Errorf("%s is required", col)
		}
	}
	if !strings.Contains(lead.Email, "@") {
		return lead, fmt.Errorf("invalid email %q", lead.Email)
	}

	if lead.Source == "" {
		lead.Source = models.LeadSourceOther
	} else if !lead.Source.Valid() {
		return lead, fmt.Errorf("invalid source %q", lead.Source)
	}
	if lead.Status != "" && !lead.Status.Valid() {
		return lead, fmt.Errorf("invalid status %q", lead.Status)
	}

	if raw := get("score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < 0 || score > 100 {
			return lead, fmt.Errorf("invalid score %q", raw)
		}
		lead.Score = score
	}
	if raw := get("lead_value"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return lead, fmt.Errorf("invalid lead_value %q", raw)
		}
		lead.LeadValue = value
	}
	if raw := get("last_activity_at"); raw != "" {
		t, _, ok := parseDate(raw)
		if !ok {
			return lead, fmt.Errorf("invalid last_activity_at %q", raw)
		}
		lead.LastActivityAt = &t
	}
	if raw := get("is_qualified"); raw != "" {
		q, err := strconv.ParseBool(raw)
		if err != nil {
			return lead, fmt.Errorf("invalid is_qualified %q", raw)
		}
		lead.IsQualified = q
	}

	lead.ApplyDefaults()
	return lead, nil
}

// CSVWriter writes leads in CSVColumns order.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the header immediately.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(CSVColumns); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	return cw, nil
}

func (cw *CSVWriter) Write(leads []models.Lead) error {
	for _, l := range leads {
		lastActivity := ""
		if l.LastActivityAt != nil {
			lastActivity = l.LastActivityAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(l.ID), 10),
			l.FirstName,
			l.LastName,
			l.Email,
			l.Phone,
			l.Company,
			l.City,
			l.State,
			string(l.Source),
			string(l.Status),
			strconv.Itoa(l.Score),
			strconv.FormatFloat(l.LeadValue, 'f', -1, 64),
			lastActivity,
			strconv.FormatBool(l.IsQualified),
			l.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.w.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.w.Flush()
	return cw.w.Error()
}

// Flush flushes buffered rows and reports any write error.
func (cw *CSVWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
