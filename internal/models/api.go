package models

// CreateProposalRequest represents a proposal creation request. Emptiness is
// checked by the state owner so the form and the API share one rule.
type CreateProposalRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// UpdateDraftRequest replaces the draft form fields
type UpdateDraftRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// NavigateRequest selects a view
type NavigateRequest struct {
	View string `json:"view" binding:"required"`
}

// StateResponse is the externally visible application state of a session
type StateResponse struct {
	Version    uint64           `json:"version"`
	View       AppView          `json:"view"`
	Wallet     string           `json:"wallet,omitempty"`
	Connecting bool             `json:"connecting"`
	Proposals  []Proposal       `json:"proposals"`
	Analyses   map[int64]string `json:"analyses"`
	Analyzing  []int64          `json:"analyzing"`
	Draft      Draft            `json:"draft"`
	Improving  bool             `json:"improving"`
}

// ProposalListResponse wraps the proposal collection
type ProposalListResponse struct {
	Proposals []Proposal `json:"proposals"`
	Total     int        `json:"total"`
}
