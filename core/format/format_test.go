package format_test

import (
	"math/big"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/core/format"
	"github.com/snowduck/snowduck/host"
)

func testRows() (core.Header, [][]any) {
	header := core.Header{"id", "name", "tags"}
	rows := [][]any{
		{int64(1), "mallard", []any{host.Symbol("green"), nil}},
		{int64(2), nil, []any{}},
	}
	return header, rows
}

func TestJSON_Objects(t *testing.T) {
	header, rows := testRows()

	out, err := format.NewJSON().Format(header, rows, &core.FormatterOptions{Mode: core.ModeObject})
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"id": 1, "name": "mallard", "tags": ["green", null]},
		{"id": 2, "name": null, "tags": []}
	]`, string(out))

	// column order is kept
	assert.Less(t, strings.Index(string(out), `"id"`), strings.Index(string(out), `"name"`))
	assert.Less(t, strings.Index(string(out), `"name"`), strings.Index(string(out), `"tags"`))
}

func TestJSON_Arrays(t *testing.T) {
	out, err := format.NewJSON().Format(core.Header{"n"}, [][]any{{int64(1)}, {int64(2)}}, &core.FormatterOptions{Mode: core.ModeArray})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2]`, string(out))

	header, rows := testRows()
	out, err = format.NewJSON().Format(header, rows, &core.FormatterOptions{Mode: core.ModeArray})
	require.NoError(t, err)
	assert.JSONEq(t, `[[1, "mallard", ["green", null]], [2, null, []]]`, string(out))
}

func TestCSV(t *testing.T) {
	header := core.Header{"id", "amount", "day", "big", "tags", "ratio"}
	rows := [][]any{
		{int64(1), decimal.RequireFromString("1.50"), civil.Date{Year: 2024, Month: 2, Day: 29}, new(big.Int).Lsh(big.NewInt(1), 70), []any{"a,b"}, 0.5},
		{int64(2), nil, nil, nil, nil, nil},
	}

	out, err := format.NewCSV().Format(header, rows, &core.FormatterOptions{})
	require.NoError(t, err)

	assert.Equal(t, "id,amount,day,big,tags,ratio\n"+
		"1,1.50,2024-02-29,1180591620717411303424,\"[\"\"a,b\"\"]\",0.5\n"+
		"2,,,,,\n", string(out))
}

func TestTable(t *testing.T) {
	header, rows := testRows()

	out, err := format.NewTable().Format(header, rows, &core.FormatterOptions{ChunkStart: 10})
	require.NoError(t, err)

	rendered := string(out)
	assert.Contains(t, rendered, "mallard")
	assert.Contains(t, rendered, "NULL")
	assert.Contains(t, rendered, `["green",null]`)
	assert.Contains(t, rendered, "11")
	assert.Contains(t, rendered, "12")
}

func TestResultFormat(t *testing.T) {
	header, rows := testRows()
	result := core.NewResult(header, rows)

	out, err := result.Format(format.NewJSON(), core.ModeArray, 1, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[[2, null, []]]`, string(out))

	_, err = result.Format(format.NewJSON(), core.ModeArray, 2, 1)
	assert.ErrorContains(t, err, "invalid selection range")
}
