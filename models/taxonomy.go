package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field identifies an enum-typed column constrained by the taxonomy.
// Values match the persisted column names.
type Field string

const (
	FieldState       Field = "estado"
	FieldDoctor      Field = "doctor"
	FieldTechnician  Field = "tons_a_cargo"
	FieldBranch      Field = "sucursal"
	FieldMaterial    Field = "material"
	FieldDesignMode  Field = "diseno"
	FieldBlockBucket Field = "bloques_usados"
)

// Fields lists every taxonomy field in a stable order.
var Fields = []Field{
	FieldState,
	FieldDoctor,
	FieldTechnician,
	FieldBranch,
	FieldMaterial,
	FieldDesignMode,
	FieldBlockBucket,
}

// ParseField maps a column name to its Field.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// TaxonomyLists is the plain, serialisable form of a taxonomy.
type TaxonomyLists struct {
	States         []string `yaml:"estado" json:"estado"`
	DeliveredState string   `yaml:"estado_entregado" json:"estado_entregado"`
	Doctors        []string `yaml:"doctor" json:"doctor"`
	Technicians    []string `yaml:"tons_a_cargo" json:"tons_a_cargo"`
	Branches       []string `yaml:"sucursal" json:"sucursal"`
	Materials      []string `yaml:"material" json:"material"`
	DesignModes    []string `yaml:"diseno" json:"diseno"`
	BlockBuckets   []string `yaml:"bloques_usados" json:"bloques_usados"`
}

// Taxonomy holds the ordered allowed values of every enum field.
// It is immutable once built: constructors copy their input and accessors return copies.
type Taxonomy struct {
	values    map[Field][]string
	delivered string
}

// DefaultTaxonomyLists returns the lists in use at the clinic.
func DefaultTaxonomyLists() TaxonomyLists {
	return TaxonomyLists{
		States:         []string{"Solicitado", "En progreso", "Aceptado", "Entregado", "Fresado", "Diseñado", "Listo"},
		DeliveredState: "Entregado",
		Doctors: []string{
			"Grace Martinson", "Pauline Heinriksen", "Francisca Corbalán", "David Sandoval",
			"Antonio Alvear", "José Acuña", "Sebastián Ortíz", "Antonia Pardo",
		},
		Technicians: []string{
			"Sasha U.", "Martina T.", "Valentina S.", "Javiera P.", "Álvaro M.", "Millaray", "Isidora Q.",
			"Carolina H.", "Carolina S.", "SIN TONS", "Antonio Alvear", "Natalia A.", "TONS Tribunales", "Dr(a)",
		},
		Branches: []string{"Sucursal Los Tribunales", "Sucursal Vitacura"},
		Materials: []string{
			"Disilicato A3", "Hibrido A3", "Híbrido A2", "Disilicato A2",
			"Disilicato A1", "Disilicato", "Híbrido A1", "PMMA",
		},
		DesignModes: []string{
			"Modalidad Chairside", "Diseñado por David", "Diseñado por Pauline",
			"Diseñado por Antonio", "Diseñado por Grace", "Diseñado por Sebastian",
		},
		BlockBuckets: []string{"1 bloque", "2 bloques", "3 bloques", "4 bloques", "5 o más bloques"},
	}
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() Taxonomy {
	t, err := NewTaxonomy(DefaultTaxonomyLists())
	if err != nil {
		panic(err)
	}
	return t
}

// NewTaxonomy validates and copies lists into a Taxonomy.
func NewTaxonomy(lists TaxonomyLists) (Taxonomy, error) {
	if len(lists.States) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy: %s must not be empty", FieldState)
	}
	if lists.DeliveredState == "" {
		return Taxonomy{}, fmt.Errorf("taxonomy: delivered state is required")
	}

	t := Taxonomy{
		values: map[Field][]string{
			FieldState:       clone(lists.States),
			FieldDoctor:      clone(lists.Doctors),
			FieldTechnician:  clone(lists.Technicians),
			FieldBranch:      clone(lists.Branches),
			FieldMaterial:    clone(lists.Materials),
			FieldDesignMode:  clone(lists.DesignModes),
			FieldBlockBucket: clone(lists.BlockBuckets),
		},
		delivered: lists.DeliveredState,
	}
	if !t.Contains(FieldState, lists.DeliveredState) {
		return Taxonomy{}, fmt.Errorf("taxonomy: delivered state %q is not one of the states", lists.DeliveredState)
	}
	return t, nil
}

// LoadTaxonomy reads a YAML taxonomy file. Lists missing from the file keep their defaults.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	lists := DefaultTaxonomyLists()
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return Taxonomy{}, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	return NewTaxonomy(lists)
}

// Values returns a copy of the ordered values allowed for field.
func (t Taxonomy) Values(field Field) []string {
	return clone(t.values[field])
}

// Lists returns a copy of the whole taxonomy in serialisable form.
func (t Taxonomy) Lists() TaxonomyLists {
	return TaxonomyLists{
		States:         t.Values(FieldState),
		DeliveredState: t.delivered,
		Doctors:        t.Values(FieldDoctor),
		Technicians:    t.Values(FieldTechnician),
		Branches:       t.Values(FieldBranch),
		Materials:      t.Values(FieldMaterial),
		DesignModes:    t.Values(FieldDesignMode),
		BlockBuckets:   t.Values(FieldBlockBucket),
	}
}

// DeliveredState is the terminal workflow state; every other state is pending.
func (t Taxonomy) DeliveredState() string {
	return t.delivered
}

// Contains reports whether value is a literal member of field's list.
func (t Taxonomy) Contains(field Field, value string) bool {
	_, ok := t.IndexOf(field, value)
	return ok
}

// IndexOf returns the position of value in field's list.
// Unknown values, including historical names no longer in the list, report false rather than failing.
func (t Taxonomy) IndexOf(field Field, value string) (int, bool) {
	for i, v := range t.values[field] {
		if v == value {
			return i, true
		}
	}
	return -1, false
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
