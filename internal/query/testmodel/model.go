// Package testmodel provides the entity schema shared by the query package tests.
package testmodel

import "github.com/conduit-lang/wirequery/internal/query/schema"

// Model holds a small entity graph:
//
//	Model.Item     Id, Name, Price, Int, Long, Double, Single, NullableInt,
//	               Flag, NullableFlag, Created, Updated, Duration, Code,
//	               Small, B (Model.Bravo)
//	Model.Bravo    Id, Label, C (Model.Charlie)
//	Model.Charlie  Value
//	Model.SpecialItem extends Model.Item with Extra
type Model struct {
	Item        *schema.Type
	Bravo       *schema.Type
	Charlie     *schema.Type
	SpecialItem *schema.Type
	Registry    *schema.Registry
}

// New builds a fresh model. Each call returns distinct types.
func New() *Model {
	charlie := schema.NewComplex("Model.Charlie").
		AddProperty("Value", schema.Int32)

	bravo := schema.NewComplex("Model.Bravo").
		AddProperty("Id", schema.Int32).
		AddProperty("Label", schema.String).
		AddProperty("C", charlie)

	item := schema.NewComplex("Model.Item").
		AddProperty("Id", schema.Int32).
		AddProperty("Name", schema.String).
		AddProperty("Price", schema.Decimal).
		AddProperty("Int", schema.Int32).
		AddProperty("Long", schema.Int64).
		AddProperty("Double", schema.Double).
		AddProperty("Single", schema.Single).
		AddProperty("NullableInt", schema.Int32.Nullable()).
		AddProperty("Flag", schema.Boolean).
		AddProperty("NullableFlag", schema.Boolean.Nullable()).
		AddProperty("Created", schema.DateTime).
		AddProperty("Updated", schema.DateTimeOffset).
		AddProperty("Duration", schema.Time).
		AddProperty("Code", schema.Guid).
		AddProperty("Small", schema.Byte).
		AddProperty("B", bravo)

	special := schema.NewComplex("Model.SpecialItem").
		Extends(item).
		AddProperty("Extra", schema.String)

	return &Model{
		Item:        item,
		Bravo:       bravo,
		Charlie:     charlie,
		SpecialItem: special,
		Registry:    schema.NewRegistry(item, bravo, charlie, special),
	}
}
