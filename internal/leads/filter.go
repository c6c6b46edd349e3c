package leads

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kind selects how a query parameter family is interpreted.
type Kind int

const (
	KindText Kind = iota
	KindSet
	KindNumber
	KindDate
	KindBool
)

// FieldSpec binds a query parameter (and its suffixed variants) to a lead column.
type FieldSpec struct {
	Param  string
	Kind   Kind
	Column string
}

// Fields is the complete set of filterable lead attributes. Anything not listed
// here is ignored by BuildFilter.
var Fields = []FieldSpec{
	{Param: "email", Kind: KindText, Column: "email"},
	{Param: "company", Kind: KindText, Column: "company"},
	{Param: "city", Kind: KindText, Column: "city"},
	{Param: "status", Kind: KindSet, Column: "status"},
	{Param: "source", Kind: KindSet, Column: "source"},
	{Param: "score", Kind: KindNumber, Column: "score"},
	{Param: "lead_value", Kind: KindNumber, Column: "lead_value"},
	{Param: "created_at", Kind: KindDate, Column: "created_at"},
	{Param: "last_activity_at", Kind: KindDate, Column: "last_activity_at"},
	{Param: "is_qualified", Kind: KindBool, Column: "is_qualified"},
}

// SearchParam is the free-text parameter matched against SearchColumns.
const SearchParam = "q"

var SearchColumns = []string{"first_name", "last_name", "email", "company"}

type Op string

const (
	OpEq      Op = "eq"
	OpILike   Op = "ilike"
	OpIn      Op = "in"
	OpGt      Op = "gt"
	OpLt      Op = "lt"
	OpBetween Op = "between"
	OpOnDay   Op = "on_day"
)

// Condition is a single predicate on one column.
type Condition struct {
	Column string
	Op     Op
	Args   []interface{}
}

// Filter is the parsed form of a lead listing query. Conditions and the
// search group are AND-ed together; the search group itself is an OR.
type Filter struct {
	Conditions []Condition
	Search     string
}

// IsEmpty reports whether the filter restricts nothing.
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0 && f.Search == ""
}

// ConditionsFor returns the conditions on column in application order.
func (f Filter) ConditionsFor(column string) []Condition {
	var out []Condition
	for _, c := range f.Conditions {
		if c.Column == column {
			out = append(out, c)
		}
	}
	return out
}

// Apply adds the filter's predicates to db. The caller is responsible for
// the owner constraint.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	for _, c := range f.Conditions {
		switch c.Op {
		case OpEq:
			db = db.Where(c.Column+" = ?", c.Args[0])
		case OpILike:
			db = db.Where("LOWER("+c.Column+") LIKE LOWER(?)", c.Args[0])
		case OpIn:
			db = db.Where(c.Column+" IN ?", c.Args)
		case OpGt:
			db = db.Where(c.Column+" > ?", c.Args[0])
		case OpLt:
			db = db.Where(c.Column+" < ?", c.Args[0])
		case OpBetween:
			db = db.Where(c.Column+" BETWEEN ? AND ?", c.Args[0], c.Args[1])
		case OpOnDay:
			db = db.Where(c.Column+" >= ? AND "+c.Column+" < ?", c.Args[0], c.Args[1])
		}
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		clauses := make([]string, len(SearchColumns))
		args := make([]interface{}, len(SearchColumns))
		for i, col := range SearchColumns {
			clauses[i] = "LOWER(" + col + ") LIKE LOWER(?)"
			args[i] = pattern
		}
		db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	return db
}

// BuildFilter translates query parameters into a Filter. Unknown parameters,
// empty values and unparseable numbers or dates produce no condition.
func BuildFilter(values url.Values) Filter {
	var f Filter
	for _, spec := range Fields {
		f.Conditions = append(f.Conditions, buildField(spec, values)...)
	}
	f.Search = strings.TrimSpace(first(values, SearchParam))
	return f
}

func buildField(spec FieldSpec, values url.Values) []Condition {
	switch spec.Kind {
	case KindText:
		return buildText(spec, values)
	case KindSet:
		return buildSet(spec, values)
	case KindNumber:
		return buildNumber(spec, values)
	case KindDate:
		return buildDate(spec, values)
	case KindBool:
		return buildBool(spec, values)
	}
	return nil
}

func buildText(spec FieldSpec, values url.Values) []Condition {
	raw := first(values, spec.Param)
	if raw != "" && strings.HasPrefix(raw, "%") && strings.HasSuffix(raw, "%") {
		return []Condition{{Column: spec.Column, Op: OpILike, Args: []interface{}{raw}}}
	}
	if contains := first(values, spec.Param+"_contains"); contains != "" {
		return []Condition{{Column: spec.Column, Op: OpILike, Args: []interface{}{"%" + contains + "%"}}}
	}
	if raw != "" {
		return []Condition{{Column: spec.Column, Op: OpEq, Args: []interface{}{raw}}}
	}
	return nil
}

func buildSet(spec FieldSpec, values url.Values) []Condition {
	direct := nonEmpty(values[spec.Param])
	if len(direct) > 1 {
		return []Condition{inCondition(spec.Column, direct)}
	}
	if in := splitAll(values[spec.Param+"_in"]); len(in) > 0 {
		return []Condition{inCondition(spec.Column, in)}
	}
	if len(direct) == 1 {
		return []Condition{{Column: spec.Column, Op: OpEq, Args: []interface{}{direct[0]}}}
	}
	return nil
}

// buildNumber applies exact, then _gt, then _lt, then _between. A bound
// replaces an exact match, gt and lt narrow together, and between replaces
// everything applied before it.
func buildNumber(spec FieldSpec, values url.Values) []Condition {
	var conds []Condition

	if v, ok := parseNumber(first(values, spec.Param)); ok {
		conds = []Condition{{Column: spec.Column, Op: OpEq, Args: []interface{}{v}}}
	}
	if v, ok := parseNumber(first(values, spec.Param+"_gt")); ok {
		conds = append(withoutOp(conds, OpEq), Condition{Column: spec.Column, Op: OpGt, Args: []interface{}{v}})
	}
	if v, ok := parseNumber(first(values, spec.Param+"_lt")); ok {
		conds = append(withoutOp(conds, OpEq), Condition{Column: spec.Column, Op: OpLt, Args: []interface{}{v}})
	}
	if pair := pairOf(values[spec.Param+"_between"]); pair != nil {
		lo, okLo := parseNumber(pair[0])
		hi, okHi := parseNumber(pair[1])
		if okLo && okHi {
			conds = []Condition{{Column: spec.Column, Op: OpBetween, Args: []interface{}{lo, hi}}}
		}
	}

	return conds
}

// buildDate applies _on, then _before, then _after, then _between. Before and
// after narrow an _on day; between replaces everything applied before it.
func buildDate(spec FieldSpec, values url.Values) []Condition {
	var conds []Condition

	if day, _, ok := parseDate(first(values, spec.Param+"_on")); ok {
		start := truncateDay(day)
		conds = []Condition{{Column: spec.Column, Op: OpOnDay, Args: []interface{}{start, start.AddDate(0, 0, 1)}}}
	}
	if t, _, ok := parseDate(first(values, spec.Param+"_before")); ok {
		conds = append(conds, Condition{Column: spec.Column, Op: OpLt, Args: []interface{}{t}})
	}
	if t, _, ok := parseDate(first(values, spec.Param+"_after")); ok {
		conds = append(conds, Condition{Column: spec.Column, Op: OpGt, Args: []interface{}{t}})
	}
	if pair := pairOf(values[spec.Param+"_between"]); pair != nil {
		lo, _, okLo := parseDate(pair[0])
		hi, hiDateOnly, okHi := parseDate(pair[1])
		if okLo && okHi {
			if hiDateOnly {
				hi = truncateDay(hi).AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			conds = []Condition{{Column: spec.Column, Op: OpBetween, Args: []interface{}{lo, hi}}}
		}
	}

	return conds
}

func buildBool(spec FieldSpec, values url.Values) []Condition {
	switch first(values, spec.Param) {
	case "true":
		return []Condition{{Column: spec.Column, Op: OpEq, Args: []interface{}{true}}}
	case "false":
		return []Condition{{Column: spec.Column, Op: OpEq, Args: []interface{}{false}}}
	}
	return nil
}

func inCondition(column string, vals []string) Condition {
	args := make([]interface{}, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return Condition{Column: column, Op: OpIn, Args: args}
}

func withoutOp(conds []Condition, op Op) []Condition {
	out := conds[:0]
	for _, c := range conds {
		if c.Op != op {
			out = append(out, c)
		}
	}
	return out
}

// first returns the first non-blank value for key.
func first(values url.Values, key string) string {
	for _, v := range values[key] {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitAll flattens repeated and comma separated values.
func splitAll(vals []string) []string {
	var out []string
	for _, v := range vals {
		out = append(out, nonEmpty(strings.Split(v, ","))...)
	}
	return out
}

// pairOf returns exactly two values from either "a,b" or a repeated parameter.
func pairOf(vals []string) []string {
	parts := splitAll(vals)
	if len(parts) != 2 {
		return nil
	}
	return parts
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var dateLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
}

// parseDate accepts RFC3339, a zone-less timestamp (read as UTC) or a bare date.
func parseDate(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t.UTC(), l.dateOnly, true
		}
	}
	return time.Time{}, false, false
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
