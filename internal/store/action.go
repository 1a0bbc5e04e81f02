package store

import (
	"github.com/bizmatters/fil-vote/internal/models"
)

// Action is a state transition request. User actions come from handlers;
// completion actions are posted by effects.
type Action interface {
	Name() string
}

// ConnectWallet starts the simulated wallet handshake
type ConnectWallet struct{}

// WalletConnected completes the handshake with a generated address
type WalletConnected struct {
	Address string
}

// Vote adds one vote to a proposal
type Vote struct {
	ProposalID int64
}

// CreateProposal publishes a new proposal
type CreateProposal struct {
	Title       string
	Description string
}

// RequestAnalysis asks the AI gateway to analyze a proposal
type RequestAnalysis struct {
	ProposalID int64
}

// AnalysisCompleted stores the gateway output for a proposal
type AnalysisCompleted struct {
	ProposalID int64
	Text       string
}

// RequestRewrite asks the AI gateway to improve the draft description
type RequestRewrite struct{}

// RewriteCompleted replaces the draft description with the gateway output.
// Seq identifies the request it answers.
type RewriteCompleted struct {
	Text string
	Seq  uint64
}

// Navigate switches the rendered view
type Navigate struct {
	View models.AppView
}

// UpdateDraft replaces the draft form fields
type UpdateDraft struct {
	Title       string
	Description string
}

func (ConnectWallet) Name() string     { return "connect_wallet" }
func (WalletConnected) Name() string   { return "wallet_connected" }
func (Vote) Name() string              { return "vote" }
func (CreateProposal) Name() string    { return "create_proposal" }
func (RequestAnalysis) Name() string   { return "request_analysis" }
func (AnalysisCompleted) Name() string { return "analysis_completed" }
func (RequestRewrite) Name() string    { return "request_rewrite" }
func (RewriteCompleted) Name() string  { return "rewrite_completed" }
func (Navigate) Name() string          { return "navigate" }
func (UpdateDraft) Name() string       { return "update_draft" }

// Effect is asynchronous work requested by a transition
type Effect interface {
	effect()
}

// ConnectWalletEffect runs the wallet handshake timer
type ConnectWalletEffect struct{}

// AnalyzeEffect calls the gateway's Analyze with copies of the proposal text
type AnalyzeEffect struct {
	ProposalID  int64
	Title       string
	Description string
}

// RewriteEffect calls the gateway's SuggestRewrite with the draft description
type RewriteEffect struct {
	Description string
	Seq         uint64
}

func (ConnectWalletEffect) effect() {}
func (AnalyzeEffect) effect()       {}
func (RewriteEffect) effect()       {}
