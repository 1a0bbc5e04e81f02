package models

import (
	"time"
)

// AnonymousCreator is recorded as the creator of proposals drafted without a
// connected wallet.
const AnonymousCreator = "Anonymous"

// Proposal represents one governance item under vote
type Proposal struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VoteCount   int64     `json:"vote_count"`
	Creator     string    `json:"creator"`
	Deadline    time.Time `json:"deadline"`
	Active      bool      `json:"active"`
}

// WithVote returns a copy of the proposal carrying one more vote.
func (p Proposal) WithVote() Proposal {
	p.VoteCount++
	return p
}

// VoteRecord is the shape of a per-wallet vote entry. Nothing records votes
// per wallet yet; the type is kept so API consumers can rely on it.
type VoteRecord struct {
	Voter      string    `json:"voter"`
	ProposalID int64     `json:"proposal_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Draft holds the create-proposal form fields
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
