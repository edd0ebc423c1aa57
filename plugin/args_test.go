package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Parse(t *testing.T) {
	type fields struct {
		StringField  string `arg:"some_name"`
		IntField     int    `arg:",optional"`
		BoolField    bool   `arg:"some_bool,optional"`
		Int64Field   int64
		Float64Field float64  `arg:"some_float,optional"`
		ListField    []string `arg:"some_list,optional"`
	}

	type testCase struct {
		name           string
		raw            map[string]any
		expectedResult *fields
		expectedError  error
	}

	t.Run("Type param not a struct", func(t *testing.T) {
		_, err := NewArgs[int](nil).Parse()
		assert.ErrorContains(t, err, ErrNotAStruct(0).Error())
	})

	testCases := []testCase{
		{
			name: "Basic Parse",
			raw: map[string]any{
				"some_name":  "name",
				"IntField":   3,
				"some_bool":  true,
				"Int64Field": int64(23),
				"some_float": float64(2.3),
				"some_list":  []any{"aws", "httpfs"},
			},
			expectedResult: &fields{
				StringField:  "name",
				IntField:     3,
				BoolField:    true,
				Int64Field:   23,
				Float64Field: 2.3,
				ListField:    []string{"aws", "httpfs"},
			},
		},
		{
			name: "Parse uint64 as int",
			raw: map[string]any{
				"some_name":  "name",
				"IntField":   uint64(23),
				"Int64Field": int64(23),
			},
			expectedResult: &fields{
				StringField: "name",
				IntField:    23,
				Int64Field:  23,
			},
		},
		{
			name: "Parse integer as float",
			raw: map[string]any{
				"some_name":  "name",
				"Int64Field": int64(1),
				"some_float": int64(2),
			},
			expectedResult: &fields{
				StringField:  "name",
				Int64Field:   1,
				Float64Field: 2,
			},
		},
		{
			name: "Nil optional value is skipped",
			raw: map[string]any{
				"some_name":  "name",
				"Int64Field": int64(1),
				"some_bool":  nil,
			},
			expectedResult: &fields{
				StringField: "name",
				Int64Field:  1,
			},
		},
		{
			name: "Required field not set",
			raw: map[string]any{
				"Int64Field": int64(23),
			},
			expectedError: ErrRequiredFieldNotSet("some_name"),
		},
		{
			name: "Invalid field type",
			raw: map[string]any{
				"some_name":  3,
				"Int64Field": int64(23),
			},
			expectedError: ErrInvalidFieldType("some_name", "", 0),
		},
		{
			name: "Invalid list element",
			raw: map[string]any{
				"some_name":  "name",
				"Int64Field": int64(23),
				"some_list":  []any{"aws", 1},
			},
			expectedError: ErrInvalidFieldType("some_list", []string(nil), []any(nil)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := NewArgs[fields](tc.raw).Parse()
			if tc.expectedError != nil {
				assert.ErrorContains(t, err, tc.expectedError.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedResult, parsed)
		})
	}
}
