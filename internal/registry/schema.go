package registry

import (
	"regexp"

	"github.com/agenthub/registry/internal/shared"
	"github.com/agenthub/registry/internal/validate"
)

var (
	namePattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	dependencyPattern = regexp.MustCompile(`^[a-z0-9-]+@\d+\.\d+\.\d+$`)
)

// publishSchema validates the full publish payload.
var publishSchema = validate.Schema{
	"name": {
		Required:  true,
		Type:      validate.TypeString,
		MinLength: 3,
		MaxLength: 50,
		Pattern:   namePattern,
	},
	"version": {
		Required: true,
		Type:     validate.TypeString,
		Pattern:  SemverPattern,
	},
	"description": {
		Required:  true,
		Type:      validate.TypeString,
		MinLength: 10,
		MaxLength: 500,
	},
	"author": {
		Type:      validate.TypeString,
		MaxLength: 100,
	},
	"capabilities": {
		Required: true,
		Type:     validate.TypeArray,
		MinItems: 1,
		ItemType: validate.TypeString,
	},
	"license": {
		Required: true,
		Type:     validate.TypeString,
		Enum:     shared.RecognizedLicenses(),
	},
	"category": {
		Type: validate.TypeString,
		Enum: shared.AgentCategories(),
	},
	"tags": {
		Type:     validate.TypeArray,
		MaxItems: 10,
		ItemType: validate.TypeString,
	},
	"dependencies": {
		Type:        validate.TypeArray,
		ItemType:    validate.TypeString,
		ItemPattern: dependencyPattern,
	},
	"tools": {
		Type:     validate.TypeArray,
		ItemType: validate.TypeString,
	},
	"testCoverage": {
		Type: validate.TypeNumber,
		Min:  validate.Float(0),
		Max:  validate.Float(100),
	},
	"performanceRating": {
		Type: validate.TypeNumber,
		Min:  validate.Float(0),
		Max:  validate.Float(5),
	},
}

// updateSchema is publishSchema without identity fields and without
// required flags: patches are partial.
var updateSchema = validate.Schema{
	"description": {
		Type:      validate.TypeString,
		MinLength: 10,
		MaxLength: 500,
	},
	"author": {
		Type:      validate.TypeString,
		MaxLength: 100,
	},
	"capabilities": {
		Type:     validate.TypeArray,
		MinItems: 1,
		ItemType: validate.TypeString,
	},
	"license": {
		Type: validate.TypeString,
		Enum: shared.RecognizedLicenses(),
	},
	"category": {
		Type: validate.TypeString,
		Enum: shared.AgentCategories(),
	},
	"tags": {
		Type:     validate.TypeArray,
		MaxItems: 10,
		ItemType: validate.TypeString,
	},
	"dependencies": {
		Type:        validate.TypeArray,
		ItemType:    validate.TypeString,
		ItemPattern: dependencyPattern,
	},
	"tools": {
		Type:     validate.TypeArray,
		ItemType: validate.TypeString,
	},
	"testCoverage": {
		Type: validate.TypeNumber,
		Min:  validate.Float(0),
		Max:  validate.Float(100),
	},
	"performanceRating": {
		Type: validate.TypeNumber,
		Min:  validate.Float(0),
		Max:  validate.Float(5),
	},
	"status": {
		Type: validate.TypeString,
		Enum: []string{
			string(shared.AgentStatusActive),
			string(shared.AgentStatusDeprecated),
			string(shared.AgentStatusArchived),
			string(shared.AgentStatusPending),
		},
	},
}

// reviewSchema validates review submissions; bare ratings reuse the
// rating rule alone.
var reviewSchema = validate.Schema{
	"agentId": {
		Required: true,
		Type:     validate.TypeString,
	},
	"rating": {
		Required: true,
		Type:     validate.TypeNumber,
		Integer:  true,
		Min:      validate.Float(1),
		Max:      validate.Float(5),
	},
	"comment": {
		Required:  true,
		Type:      validate.TypeString,
		MinLength: 10,
		MaxLength: 1000,
	},
}
