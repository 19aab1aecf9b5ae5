package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	t.Run("has correct usage", func(t *testing.T) {
		cmd := newParseCommand(&globalOptions{})
		assert.Equal(t, "parse <type> [query]", cmd.Use)
		assert.NotEmpty(t, cmd.Example)

		for _, flag := range []string{"filter", "orderby", "top", "skip", "select", "format", "inlinecount", "max-top", "output"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
		}
	})

	t.Run("requires a type", func(t *testing.T) {
		workspace(t, "")
		_, _, err := execute(t, nil, "parse")
		assert.Error(t, err)
	})
}

func TestParseNormalizes(t *testing.T) {
	workspace(t, "schema:\n  file: schema.yaml\n")

	tests := []struct {
		name  string
		args  []string
		query string
		lines []string
	}{
		{
			name:  "raw query string",
			args:  []string{"Model.Product", "$filter=Price gt 20&$top=5"},
			query: "$filter=Price%20gt%2020&$top=5",
			lines: []string{"$filter", "Price gt 20", "$top", "5"},
		},
		{
			name:  "flags override the query string",
			args:  []string{"model.product", "?$top=5&page=2", "--filter", "Name eq 'x'", "--top", "3"},
			query: "$filter=Name%20eq%20%27x%27&$top=3",
		},
		{
			name:  "inherited properties",
			args:  []string{"Model.Discounted", "--filter", "Discount gt Price", "--orderby", "Name desc"},
			query: "$filter=Discount%20gt%20Price&$orderby=Name%20desc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, nil, append([]string{"parse"}, tt.args...)...)
			require.NoError(t, err, stderr)

			lines := strings.Split(strings.TrimSpace(stdout), "\n")
			assert.Equal(t, tt.query, lines[0])
			for _, want := range tt.lines {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestParseJSONOutput(t *testing.T) {
	workspace(t, "schema:\n  file: schema.yaml\n")

	stdout, stderr, err := execute(t, nil, "parse", "Model.Product",
		"--select", "Id,Supplier/*", "--inlinecount", "allpages", "-o", "json")
	require.NoError(t, err, stderr)

	var out parsed
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "Model.Product", out.Type)
	assert.Equal(t, "Id,Supplier/*", out.Options["$select"])
	assert.Equal(t, "allpages", out.Options["$inlinecount"])
	assert.Contains(t, out.Query, "$inlinecount=allpages")
}

func TestParseErrors(t *testing.T) {
	workspace(t, "schema:\n  file: schema.yaml\nparser:\n  max_top: 50\n")

	tests := []struct {
		name   string
		args   []string
		stderr []string
	}{
		{
			name:   "unknown property",
			args:   []string{"Model.Product", "--filter", "Nope eq 1"},
			stderr: []string{"INVALID $FILTER", "PRS004", "   Nope eq 1\n", "Did you mean: Name?"},
		},
		{
			name:   "caret marks the position",
			args:   []string{"Model.Product", "--filter", "Supplier/Nope eq 1"},
			stderr: []string{"PRS004", "   Supplier/Nope eq 1\n" + strings.Repeat(" ", 12) + "^"},
		},
		{
			name:   "unknown option",
			args:   []string{"Model.Product", "$expand=Supplier"},
			stderr: []string{"INVALID $EXPAND", "PRS009"},
		},
		{
			name:   "configured max top",
			args:   []string{"Model.Product", "--top", "51"},
			stderr: []string{"INVALID $TOP", "PRS009", "50"},
		},
		{
			name:   "max top flag wins",
			args:   []string{"Model.Product", "--top", "11", "--max-top", "10"},
			stderr: []string{"INVALID $TOP", "10"},
		},
		{
			name:   "unknown type",
			args:   []string{"Model.Prod"},
			stderr: []string{"TYPE NOT FOUND", "Model.Prod'", "Did you mean: Model.Product?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := execute(t, nil, append([]string{"parse"}, tt.args...)...)
			assert.ErrorIs(t, err, errReported)
			assert.Empty(t, stdout)
			for _, want := range tt.stderr {
				assert.Contains(t, stderr, want)
			}
		})
	}

	_, _, err := execute(t, nil, "parse", "Model.Product", "-o", "yaml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestSuggestTypes(t *testing.T) {
	workspace(t, "")

	opts := &globalOptions{schemaPath: "schema.yaml"}
	_, reg, err := opts.load(NewRootCommand())
	require.NoError(t, err)

	assert.Equal(t, []string{"Model.Supplier"}, suggestTypes(reg, "supplier"))
	assert.Equal(t, []string{"Model.Discounted", "Model.Product", "Model.Supplier"}, suggestTypes(reg, "Other.Thing"))
}
