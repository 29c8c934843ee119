package api

import (
	"encoding/json"
)

// Browsers a type can be shown in.
const (
	BrowserGenome            = "GenomeBrowser"
	BrowserStructuralVariant = "StructuralVariant"
)

// TypeDefinition describes a reusable track type. Every track of the type
// supplies exactly the data file slots named in FileKeys.
type TypeDefinition struct {
	Name         string          `json:"name" validate:"required,max=100,noSpaces"`
	Label        string          `json:"label" validate:"required,max=100"`
	Category     CategoryRef     `json:"category" validate:"required"`
	Trigger      []string        `json:"trigger,omitempty"`
	Kind         string          `json:"type" validate:"required,oneof=gene variant regular"`
	FileKeys     []string        `json:"file_keys" validate:"required,min=1,dive,required,noSpaces"`
	DisplayOrder int             `json:"display_order"`
	OnByDefault  bool            `json:"on_by_default"`
	Colour       string          `json:"colour,omitempty" validate:"max=30"`
	Strand       string          `json:"strand,omitempty" validate:"omitempty,oneof=forward reverse"`
	Browser      string          `json:"browser,omitempty" validate:"omitempty,oneof=GenomeBrowser StructuralVariant"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	Description  string          `json:"description,omitempty"`
}

type TypeListRsp struct {
	Types []TypeDefinition `json:"types"`
}

type RegisterTypesRsp struct {
	Registered []string `json:"registered"`
}
