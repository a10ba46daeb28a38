package filter

import (
	"errors"
	"reflect"
	"testing"

	"zonevpcsync/catalog"
)

func TestResolve(t *testing.T) {
	zones := []catalog.Zone{
		{ID: "Z1", Name: "a.internal.", Private: true, Tags: map[string]string{"a": "1", "b": "9"}},
		{ID: "Z2", Name: "b.internal.", Private: true, Tags: map[string]string{"a": "9", "b": "2"}},
		{ID: "Z3", Name: "c.internal.", Private: true, Tags: map[string]string{"a": "9", "b": "9"}},
	}

	tests := []struct {
		name     string
		value    string
		expected []string
		wantErr  bool
	}{
		{
			name:     "empty tag value contributes no zones",
			value:    "",
			expected: nil,
		},
		{
			name:     "filters are OR'd and deduplicated",
			value:    `[{"tags":{"a":"1"}},{"tags":{"b":"2"}}]`,
			expected: []string{"Z1", "Z2"},
		},
		{
			name:     "fields within a filter are AND'd",
			value:    `[{"name":"a.internal.","tags":{"a":"9"}}]`,
			expected: nil,
		},
		{
			name:     "zone matched by multiple filters counts once",
			value:    `[{"id":"Z1"},{"tags":{"a":"1"}}]`,
			expected: []string{"Z1"},
		},
		{
			name:     "empty filter matches everything",
			value:    `[{}]`,
			expected: []string{"Z1", "Z2", "Z3"},
		},
		{
			name:     "private mismatch excludes zone",
			value:    `[{"private":false}]`,
			expected: nil,
		},
		{
			name:     "empty filter list matches nothing",
			value:    `[]`,
			expected: nil,
		},
		{
			name:    "malformed json",
			value:   `[{`,
			wantErr: true,
		},
		{
			name:    "unknown field rejected",
			value:   `[{"Config":{"PrivateZone":true}}]`,
			wantErr: true,
		},
		{
			name:    "non-array rejected",
			value:   `{"id":"Z1"}`,
			wantErr: true,
		},
		{
			name:    "trailing data rejected",
			value:   `[{"id":"Z1"}] garbage`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(zones, tt.value)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				var malformed *MalformedFilterError
				if !errors.As(err, &malformed) {
					t.Errorf("Expected MalformedFilterError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolved zones mismatch: got %v, want %v", got, tt.expected)
			}
		})
	}
}
