package dto

type InstallRequest struct {
	AgentID string `json:"agentId" example:"test-agent@1.0.0"`
}

type InstallResponse struct {
	Success   bool          `json:"success" example:"true"`
	InstallID string        `json:"install_id" example:"dl_abc123"`
	Agent     AgentResponse `json:"agent"`
}

type InstalledAgent struct {
	Name    string `json:"name" example:"test-agent"`
	Version string `json:"version" example:"1.0.0"`
}

type CheckUpdatesRequest struct {
	Installed []InstalledAgent `json:"installed"`
}

type AvailableUpdate struct {
	Name           string        `json:"name" example:"test-agent"`
	CurrentVersion string        `json:"currentVersion" example:"1.0.0"`
	LatestVersion  string        `json:"latestVersion" example:"1.2.0"`
	Agent          AgentResponse `json:"agent"`
}

type CheckUpdatesResponse struct {
	Success bool              `json:"success" example:"true"`
	Updates []AvailableUpdate `json:"updates"`
}

type UpdateInstalledResponse struct {
	Success bool          `json:"success" example:"true"`
	Agent   AgentResponse `json:"agent"`
}
