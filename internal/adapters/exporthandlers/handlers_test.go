package exporthandlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/internal/domain/export"
)

func TestRegister(t *testing.T) {
	reg := export.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{ExampleHandlerName, JSONRowsHandlerName}, reg.Names())
	require.Error(t, Register(reg), "second registration must fail on duplicates")
}

func TestExample(t *testing.T) {
	rows, err := Example(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	v, ok := rows[0].Value("testContent")
	require.True(t, ok)
	assert.Equal(t, "9", v)

	code, ok := rows[0].(export.DictionaryCoder).DictionaryCode("testContent")
	require.True(t, ok)
	assert.Equal(t, "SEX", code)
}

func TestJSONRows(t *testing.T) {
	spec := &export.ColumnSpec{Columns: []export.Column{
		{Property: "name", Label: "Name"},
		{Property: "city", Label: "City"},
	}}
	p := export.NewProjector(export.ProjectorOptions{NullValue: "-"})

	t.Run("bare array", func(t *testing.T) {
		rows, err := JSONRows(context.Background(), `[{"name":"a","city":"x"},{"name":"b"}]`)
		require.NoError(t, err)

		out, err := p.Project(context.Background(), export.ProjectInput{Spec: spec, Rows: rows})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "x"}, {"b", "-"}}, out)
	})

	t.Run("object with paths", func(t *testing.T) {
		rows, err := JSONRows(context.Background(),
			`{"rows":[{"user":{"name":"c"},"addr":{"city":"y"}}],"paths":{"name":"user.name","city":"addr.city"}}`)
		require.NoError(t, err)

		out, err := p.Project(context.Background(), export.ProjectInput{Spec: spec, Rows: rows})
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"c", "y"}}, out)
	})

	t.Run("empty params", func(t *testing.T) {
		rows, err := JSONRows(context.Background(), "  ")
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := JSONRows(context.Background(), `[{`)
		require.Error(t, err)

		_, err = JSONRows(context.Background(), `{"rows":[{}],"paths":{"a":"[[["}}`)
		require.Error(t, err)
	})
}
