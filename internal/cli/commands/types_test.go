package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/web/api"
)

func TestTypesTable(t *testing.T) {
	workspace(t, "")

	stdout, stderr, err := execute(t, nil, "types", "--schema", "schema.yaml")
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, "Model.Discounted : Model.Product\n")
	assert.Contains(t, stdout, "  Supplier  Model.Supplier\n")
	assert.Contains(t, stdout, "  Rating    Edm.Int32?\n")
	assert.Less(t, strings.Index(stdout, "Model.Discounted"), strings.Index(stdout, "Model.Supplier"), "types are sorted")
}

func TestTypesJSON(t *testing.T) {
	workspace(t, "schema:\n  file: schema.yaml\n")

	stdout, _, err := execute(t, nil, "types", "--format", "json")
	require.NoError(t, err)
	var all []api.TypeResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "Model.Discounted", all[0].Name)
	assert.Len(t, all[0].Properties, 6)

	stdout, _, err = execute(t, nil, "types", "model.supplier", "--format", "json")
	require.NoError(t, err)
	var one api.TypeResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &one))
	assert.Equal(t, api.TypeResponse{
		Name: "Model.Supplier",
		Properties: []api.PropertyResponse{
			{Name: "Id", Type: "Edm.Int32"},
			{Name: "Country", Type: "Edm.String"},
		},
	}, one)
}

func TestTypesErrors(t *testing.T) {
	workspace(t, "schema:\n  file: schema.yaml\n")

	_, stderr, err := execute(t, nil, "types", "Model.Nope")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "TYPE NOT FOUND")

	_, _, err = execute(t, nil, "types", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}
