package shared

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	return json.Unmarshal(bytes, s)
}

// JSONMap stores loosely structured metadata as a JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}

	return json.Unmarshal(bytes, m)
}

func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

func NewID(prefix string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionDelete Permission = "delete"
	PermissionAdmin  Permission = "admin"
)

type AgentStatus string

const (
	AgentStatusActive     AgentStatus = "active"
	AgentStatusDeprecated AgentStatus = "deprecated"
	AgentStatusArchived   AgentStatus = "archived"
	AgentStatusPending    AgentStatus = "pending"
)

type AgentCategory string

const (
	AgentCategoryGeneral       AgentCategory = "general"
	AgentCategoryDevelopment   AgentCategory = "development"
	AgentCategoryTesting       AgentCategory = "testing"
	AgentCategoryDevops        AgentCategory = "devops"
	AgentCategorySecurity      AgentCategory = "security"
	AgentCategoryData          AgentCategory = "data"
	AgentCategoryDocumentation AgentCategory = "documentation"
	AgentCategoryAutomation    AgentCategory = "automation"
	AgentCategoryResearch      AgentCategory = "research"
)

func AgentCategories() []string {
	return []string{
		string(AgentCategoryGeneral),
		string(AgentCategoryDevelopment),
		string(AgentCategoryTesting),
		string(AgentCategoryDevops),
		string(AgentCategorySecurity),
		string(AgentCategoryData),
		string(AgentCategoryDocumentation),
		string(AgentCategoryAutomation),
		string(AgentCategoryResearch),
	}
}

// Tracked analytics event types.
const (
	EventAgentPublished  = "agent_published"
	EventAgentInstalled  = "agent_installed"
	EventAgentUpdated    = "agent_updated"
	EventAgentViewed     = "agent_viewed"
	EventSearchPerformed = "search_performed"
)

// Licenses the registry accepts on publish.
func RecognizedLicenses() []string {
	return []string{"MIT", "Apache-2.0", "GPL-3.0", "BSD-3-Clause", "ISC", "Unlicense", "proprietary"}
}
