package records

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
)

// Project keeps only the requested fields plus Id.
func Project(doc []byte, fields []FieldRef) (json.RawMessage, error) {
	if len(fields) == 0 {
		return doc, nil
	}

	all := make(map[string]json.RawMessage)
	if err := json.Unmarshal(doc, &all); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	kept := map[string]json.RawMessage{"Id": all["Id"]}
	for _, f := range fields {
		if v, ok := all[f.Field.Name]; ok {
			kept[f.Field.Name] = v
		}
	}
	return json.Marshal(kept)
}

// CheckConditions rejects operators other than EqualTo.
func CheckConditions(where []Condition) error {
	for _, c := range where {
		if !strings.EqualFold(c.Operator, "EqualTo") || len(c.Values) == 0 {
			return fmt.Errorf("unsupported condition %q on %s", c.Operator, c.FieldName)
		}
	}
	return nil
}

// fieldText renders a top-level value the way a JSONB ->> lookup does:
// strings unquoted, other values as JSON text, null or absent as missing.
func fieldText(row map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := row[name]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func matches(row map[string]json.RawMessage, where []Condition) bool {
	for _, c := range where {
		v, ok := fieldText(row, c.FieldName)
		if !ok || v != fmt.Sprint(c.Values[0]) {
			return false
		}
	}
	return true
}

// compareRows orders by each OrderBy field in turn. Missing values sort last
// ascending and first descending.
func compareRows(a, b map[string]json.RawMessage, order []OrderBy) int {
	for _, o := range order {
		av, aok := fieldText(a, o.FieldName)
		bv, bok := fieldText(b, o.FieldName)

		var c int
		switch {
		case aok && bok:
			c = cmp.Compare(av, bv)
		case aok:
			c = -1
		case bok:
			c = 1
		}
		if strings.EqualFold(o.SortType, "DESC") {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
