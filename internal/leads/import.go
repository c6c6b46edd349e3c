package leads

import (
	"context"
	"errors"
	"io"
	"sort"
)

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped"`
}

// ImportCSV parses r and inserts each accepted row for owner. Rows whose email
// already exists are skipped and reported; any other store failure aborts the
// import, keeping the rows inserted so far.
func ImportCSV(ctx context.Context, store Store, owner uint, r io.Reader) (*ImportResult, error) {
	parsed, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: parsed.Skipped}
	for i := range parsed.Leads {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		lead := parsed.Leads[i]
		if err := store.Insert(ctx, owner, &lead); err != nil {
			if errors.Is(err, ErrDuplicate) {
				result.Skipped = append(result.Skipped, RowError{Line: parsed.Lines[i], Reason: "email already exists"})
				continue
			}
			return result, err
		}
		result.Imported++
	}

	sort.SliceStable(result.Skipped, func(a, b int) bool {
		return result.Skipped[a].Line < result.Skipped[b].Line
	})
	return result, nil
}
