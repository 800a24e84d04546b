package model

// Agent represents a loyalty program member.
type Agent struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	DisplayName string `json:"display_name,omitempty"`
}

// AgentRef addresses an agent by either an opaque identifier or a
// human-facing code. Requests may supply one or both; the resolution into a
// canonical agent happens once at the boundary instead of string-prefix
// branching in the core.
type AgentRef struct {
	ID   string `json:"agent_id,omitempty"`
	Code string `json:"agent_code,omitempty"`
}

// AgentByID builds a reference addressing an agent by opaque identifier.
func AgentByID(id string) AgentRef { return AgentRef{ID: id} }

// AgentByCode builds a reference addressing an agent by human-facing code.
func AgentByCode(code string) AgentRef { return AgentRef{Code: code} }

// IsZero reports whether the reference carries no addressing information.
func (r AgentRef) IsZero() bool { return r.ID == "" && r.Code == "" }
