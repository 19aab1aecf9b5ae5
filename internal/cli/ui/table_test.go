package ui

import (
	"bytes"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Property", "Type"}, &TableOptions{NoColor: true, Indent: "  "})
	table.AddRow("Id", "Edm.Int32")
	table.AddRow("Supplier", "Model.Supplier")
	table.AddRow("Rating", "Edm.Int32?")
	table.Render()

	want := "  Property  Type\n" +
		"  ────────  ──────────────\n" +
		"  Id        Edm.Int32\n" +
		"  Supplier  Model.Supplier\n" +
		"  Rating    Edm.Int32?\n"
	if buf.String() != want {
		t.Errorf("unexpected table:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestTableShortRowsAndNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A", "B", "C"}, &TableOptions{NoColor: true})
	table.AddRow("x")
	table.AddRow("y", "z", "w", "extra")
	table.Render()

	want := "A  B  C\n" +
		"─  ─  ─\n" +
		"x\n" +
		"y  z  w\n"
	if buf.String() != want {
		t.Errorf("unexpected table:\n%q\nwant:\n%q", buf.String(), want)
	}

	buf.Reset()
	NewTable(&buf, nil, nil).Render()
	if buf.Len() != 0 {
		t.Errorf("expected no output without headers, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, "  ", true)
	kv.AddRow("$filter", "Price gt 20")
	kv.AddRow("$top", "5")
	kv.Render()

	want := "  $filter: Price gt 20\n" +
		"  $top:    5\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}
