// Package filter resolves a VPC's desired zone set from its reconciliation
// tag. The tag value is a JSON array of partial-match patterns over zone
// attributes; filters are OR'd, fields within a filter are AND'd.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"zonevpcsync/catalog"
)

// ZoneFilter is one partial-match pattern. Nil fields are wildcards; a set
// field must match the zone exactly. Tags match by subset: every listed
// key/value pair must be present on the zone.
type ZoneFilter struct {
	ID      *string           `json:"id,omitempty"`
	Name    *string           `json:"name,omitempty"`
	Private *bool             `json:"private,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// MalformedFilterError marks a reconciliation tag value that failed to parse.
// It is a per-VPC condition, never fatal to a run.
type MalformedFilterError struct {
	Value string
	Err   error
}

func (e *MalformedFilterError) Error() string {
	return fmt.Sprintf("malformed zone filter %q: %v", e.Value, e.Err)
}

func (e *MalformedFilterError) Unwrap() error {
	return e.Err
}

// Parse strictly decodes a filter list. Unknown fields and trailing input are
// rejected rather than silently matching nothing.
func Parse(value string) ([]ZoneFilter, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.DisallowUnknownFields()

	var filters []ZoneFilter
	if err := dec.Decode(&filters); err != nil {
		return nil, &MalformedFilterError{Value: value, Err: err}
	}
	if dec.More() {
		return nil, &MalformedFilterError{Value: value, Err: fmt.Errorf("trailing data after filter list")}
	}
	return filters, nil
}

// Resolve returns the sorted, deduplicated ids of every catalog zone matched
// by at least one filter in the tag value. An empty value resolves to no
// zones; a malformed value returns *MalformedFilterError.
func Resolve(zones []catalog.Zone, value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}

	filters, err := Parse(value)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]bool)
	for _, f := range filters {
		for _, z := range zones {
			if f.Matches(z) {
				matched[z.ID] = true
			}
		}
	}

	if len(matched) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f ZoneFilter) Matches(z catalog.Zone) bool {
	if f.ID != nil && *f.ID != z.ID {
		return false
	}
	if f.Name != nil && *f.Name != z.Name {
		return false
	}
	if f.Private != nil && *f.Private != z.Private {
		return false
	}
	for k, v := range f.Tags {
		if z.Tags[k] != v {
			return false
		}
	}
	return true
}
