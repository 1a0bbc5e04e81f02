package store

import (
	"errors"
	"slices"
	"time"

	"github.com/bizmatters/fil-vote/internal/models"
)

var (
	// ErrWalletNotConnected is returned when voting without a wallet
	ErrWalletNotConnected = errors.New("please connect your wallet first")
	// ErrDraftIncomplete is returned when a proposal lacks a title or description
	ErrDraftIncomplete = errors.New("proposal title and description are required")
	// ErrEmptyDescription is returned when a rewrite is requested for an empty draft
	ErrEmptyDescription = errors.New("draft description is empty")
	// ErrProposalNotFound is returned for operations on an unknown proposal id
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrUnknownView is returned when navigating to a view that has no screen
	ErrUnknownView = errors.New("view is not routable")
	// ErrUnknownAction is returned for action types the reducer does not handle
	ErrUnknownAction = errors.New("unknown action")
	// ErrClosed is returned by a store that has been shut down
	ErrClosed = errors.New("store is closed")
)

// AnalysisFailedText replaces an empty analysis result
const AnalysisFailedText = "Analysis failed"

// AnalysisUnavailableText is the analysis recorded when no AI capability is
// reachable.
const AnalysisUnavailableText = "Could not perform AI analysis at this time."

const (
	// DefaultProposalLifetime is how long a newly created proposal stays open
	DefaultProposalLifetime = 7 * 24 * time.Hour
	// DefaultWalletDelay is the simulated wallet handshake duration
	DefaultWalletDelay = time.Second
)

// State is one immutable snapshot of a session's dashboard. The reducer never
// modifies the slices or maps of a published snapshot; it copies them.
type State struct {
	Version    uint64
	View       models.AppView
	Wallet     string
	Connecting bool
	Proposals  []models.Proposal
	Analyses   map[int64]string
	Analyzing  map[int64]struct{}
	Draft      models.Draft
	Improving  bool
	NextID     int64
	// RewriteSeq numbers rewrite requests; a completion for an older
	// number is discarded.
	RewriteSeq uint64
}

// SeedProposals returns the proposals every session starts with
func SeedProposals(now time.Time) []models.Proposal {
	const day = 24 * time.Hour
	return []models.Proposal{
		{
			ID:          1,
			Title:       "Upgrade Storage Infrastructure",
			Description: "Upgrade the primary storage nodes to support higher throughput on the Filecoin network.",
			VoteCount:   156,
			Creator:     "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
			Deadline:    now.Add(5 * day),
			Active:      true,
		},
		{
			ID:          2,
			Title:       "Community Growth Fund",
			Description: "Allocate 50,000 FIL for developer grants and community meetups in the Q3 period.",
			VoteCount:   89,
			Creator:     "0x35Cc6634C0532925a3b844Bc454e4438f44e742d",
			Deadline:    now.Add(2 * day),
			Active:      true,
		},
	}
}

// Initial returns the state of a fresh session
func Initial(now time.Time) State {
	proposals := SeedProposals(now)
	var maxID int64
	for _, p := range proposals {
		maxID = max(maxID, p.ID)
	}
	return State{
		View:      models.ViewDashboard,
		Proposals: proposals,
		Analyses:  map[int64]string{},
		Analyzing: map[int64]struct{}{},
		NextID:    maxID + 1,
	}
}

// Connected reports whether a simulated wallet address is present
func (s State) Connected() bool {
	return s.Wallet != ""
}

// Proposal looks a proposal up by id
func (s State) Proposal(id int64) (models.Proposal, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return models.Proposal{}, false
	}
	return s.Proposals[i], true
}

// IsAnalyzing reports whether an analysis for the proposal is outstanding
func (s State) IsAnalyzing(id int64) bool {
	_, ok := s.Analyzing[id]
	return ok
}

// Response converts the snapshot into its API representation
func (s State) Response() models.StateResponse {
	analyses := make(map[int64]string, len(s.Analyses))
	for id, text := range s.Analyses {
		analyses[id] = text
	}
	analyzing := make([]int64, 0, len(s.Analyzing))
	for id := range s.Analyzing {
		analyzing = append(analyzing, id)
	}
	slices.Sort(analyzing)

	return models.StateResponse{
		Version:    s.Version,
		View:       s.View,
		Wallet:     s.Wallet,
		Connecting: s.Connecting,
		Proposals:  slices.Clone(s.Proposals),
		Analyses:   analyses,
		Analyzing:  analyzing,
		Draft:      s.Draft,
		Improving:  s.Improving,
	}
}

func (s State) indexOf(id int64) int {
	return slices.IndexFunc(s.Proposals, func(p models.Proposal) bool {
		return p.ID == id
	})
}

// touch returns a copy of the snapshot with the next version number
func (s State) touch() State {
	s.Version++
	return s
}
