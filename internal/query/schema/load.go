package schema

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML form of an entity schema:
//
//	types:
//	  - name: Model.Product
//	    properties:
//	      - {name: Id, type: Edm.Int32}
//	      - {name: Rating, type: Edm.Int32?}
//	      - {name: Supplier, type: Model.Supplier}
//	      - {name: Tags, type: Collection(Edm.String)}
type File struct {
	Types []TypeDef `yaml:"types"`
}

// TypeDef declares one complex type
type TypeDef struct {
	Name       string        `yaml:"name"`
	Base       string        `yaml:"base,omitempty"`
	Properties []PropertyDef `yaml:"properties"`
}

// PropertyDef declares one property. A trailing "?" marks a nullable
// primitive.
type PropertyDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// LoadFile reads a YAML schema from path
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML schema and registers its types. Type references may
// point forward to types declared later in the file.
func Load(r io.Reader) (*Registry, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	return file.Build()
}

// Build creates the declared types in two passes so that properties can
// reference any type in the file.
func (f *File) Build() (*Registry, error) {
	reg := NewRegistry()
	declared := make([]*Type, len(f.Types))
	for i, def := range f.Types {
		if def.Name == "" {
			return nil, fmt.Errorf("type %d has no name", i)
		}
		if _, exists := reg.Lookup(def.Name); exists {
			return nil, fmt.Errorf("type %s declared twice", def.Name)
		}
		if _, ok := PrimitiveByName(def.Name); ok {
			return nil, fmt.Errorf("type %s shadows a primitive type", def.Name)
		}
		declared[i] = NewComplex(def.Name)
		reg.Register(declared[i])
	}

	for i, def := range f.Types {
		t := declared[i]
		if def.Base != "" {
			base, err := reg.typeRef(def.Base)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", def.Name, err)
			}
			if base.Kind() != KindComplex {
				return nil, fmt.Errorf("type %s: base %s is not a complex type", def.Name, def.Base)
			}
			t.Extends(base)
		}
		seen := make(map[string]bool)
		for _, p := range def.Properties {
			key := strings.ToLower(p.Name)
			if p.Name == "" || seen[key] {
				return nil, fmt.Errorf("type %s: missing or duplicate property name %q", def.Name, p.Name)
			}
			seen[key] = true
			typ, err := reg.typeRef(p.Type)
			if err != nil {
				return nil, fmt.Errorf("type %s: property %s: %w", def.Name, p.Name, err)
			}
			t.AddProperty(p.Name, typ)
		}
	}
	return reg, nil
}

// typeRef resolves a type reference: a primitive display name, an
// optional "?" suffix, Collection(...) or a registered complex type.
func (r *Registry) typeRef(ref string) (*Type, error) {
	ref = strings.TrimSpace(ref)
	if inner, ok := strings.CutPrefix(ref, "Collection("); ok && strings.HasSuffix(inner, ")") {
		elem, err := r.typeRef(strings.TrimSuffix(inner, ")"))
		if err != nil {
			return nil, err
		}
		return CollectionOf(elem), nil
	}

	nullable := strings.HasSuffix(ref, "?")
	name := strings.TrimSuffix(ref, "?")
	t, ok := r.Resolve(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	if nullable {
		if !t.IsPrimitive() {
			return nil, fmt.Errorf("type %s cannot be nullable", name)
		}
		return t.Nullable(), nil
	}
	return t, nil
}
