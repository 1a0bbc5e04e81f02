package view

import (
	"time"

	"github.com/bizmatters/fil-vote/internal/models"
)

const (
	totalStaked = 1245000
	totalVoters = 8421
)

// Page is the data behind one server-rendered dashboard
type Page struct {
	View        models.AppView
	Version     uint64
	Wallet      string
	WalletShort string
	Connecting  bool
	Proposals   []ProposalCard
	ActiveCount int
	TotalStaked string
	TotalVoters string
	Draft       models.Draft
	Improving   bool
	// Notice is shown in a blocking modal when set
	Notice string
}

// ProposalCard is a proposal with its display strings precomputed
type ProposalCard struct {
	ID          int64
	Title       string
	Description string
	Votes       string
	Deadline    string
	Creator     string
	Analysis    string
	Analyzing   bool
}

// NewPage prepares a snapshot for rendering. Dates are shown in loc.
func NewPage(s models.StateResponse, loc *time.Location) Page {
	if loc == nil {
		loc = time.Local
	}

	analyzing := make(map[int64]bool, len(s.Analyzing))
	for _, id := range s.Analyzing {
		analyzing[id] = true
	}

	cards := make([]ProposalCard, 0, len(s.Proposals))
	for _, p := range s.Proposals {
		cards = append(cards, ProposalCard{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Votes:       FormatVotes(p.VoteCount),
			Deadline:    FormatDeadline(p.Deadline.In(loc)),
			Creator:     ChecksumAddress(p.Creator),
			Analysis:    s.Analyses[p.ID],
			Analyzing:   analyzing[p.ID],
		})
	}

	return Page{
		View:        s.View,
		Version:     s.Version,
		Wallet:      s.Wallet,
		WalletShort: ShortAddress(s.Wallet),
		Connecting:  s.Connecting,
		Proposals:   cards,
		ActiveCount: len(s.Proposals),
		TotalStaked: FormatCount(totalStaked),
		TotalVoters: FormatCount(totalVoters),
		Draft:       s.Draft,
		Improving:   s.Improving,
	}
}
