package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/bizmatters/fil-vote/internal/models"
)

// Env carries the inputs a transition may depend on besides the state
type Env struct {
	Now              time.Time
	ProposalLifetime time.Duration
}

// Reduce applies one action to a snapshot. It is pure: the input snapshot is
// left untouched, and asynchronous work is returned as effects for the
// caller to run. A returned error means no mutation happened.
func Reduce(s State, a Action, env Env) (State, []Effect, error) {
	switch act := a.(type) {
	case ConnectWallet:
		if s.Connecting {
			return s, nil, nil
		}
		next := s.touch()
		next.Connecting = true
		return next, []Effect{ConnectWalletEffect{}}, nil

	case WalletConnected:
		next := s.touch()
		next.Wallet = act.Address
		next.Connecting = false
		return next, nil, nil

	case Vote:
		if !s.Connected() {
			return s, nil, ErrWalletNotConnected
		}
		i := s.indexOf(act.ProposalID)
		if i < 0 {
			return s, nil, nil
		}
		next := s.touch()
		next.Proposals = slices.Clone(s.Proposals)
		next.Proposals[i] = next.Proposals[i].WithVote()
		return next, nil, nil

	case CreateProposal:
		if act.Title == "" || act.Description == "" {
			return s, nil, ErrDraftIncomplete
		}
		lifetime := env.ProposalLifetime
		if lifetime <= 0 {
			lifetime = DefaultProposalLifetime
		}
		creator := s.Wallet
		if creator == "" {
			creator = models.AnonymousCreator
		}
		proposal := models.Proposal{
			ID:          s.NextID,
			Title:       act.Title,
			Description: act.Description,
			VoteCount:   0,
			Creator:     creator,
			Deadline:    env.Now.Add(lifetime),
			Active:      true,
		}
		next := s.touch()
		next.Proposals = make([]models.Proposal, 0, len(s.Proposals)+1)
		next.Proposals = append(next.Proposals, proposal)
		next.Proposals = append(next.Proposals, s.Proposals...)
		next.NextID = s.NextID + 1
		next.Draft = models.Draft{}
		next.View = models.ViewDashboard
		// the draft is gone; a pending rewrite has nothing to write into
		next.Improving = false
		next.RewriteSeq = s.RewriteSeq + 1
		return next, nil, nil

	case RequestAnalysis:
		p, ok := s.Proposal(act.ProposalID)
		if !ok {
			return s, nil, fmt.Errorf("%w: %d", ErrProposalNotFound, act.ProposalID)
		}
		if s.IsAnalyzing(p.ID) {
			return s, nil, nil
		}
		next := s.touch()
		next.Analyzing = cloneSet(s.Analyzing)
		next.Analyzing[p.ID] = struct{}{}
		return next, []Effect{AnalyzeEffect{
			ProposalID:  p.ID,
			Title:       p.Title,
			Description: p.Description,
		}}, nil

	case AnalysisCompleted:
		text := act.Text
		if text == "" {
			text = AnalysisFailedText
		}
		next := s.touch()
		next.Analyses = make(map[int64]string, len(s.Analyses)+1)
		for id, v := range s.Analyses {
			next.Analyses[id] = v
		}
		next.Analyses[act.ProposalID] = text
		next.Analyzing = cloneSet(s.Analyzing)
		delete(next.Analyzing, act.ProposalID)
		return next, nil, nil

	case RequestRewrite:
		if s.Draft.Description == "" {
			return s, nil, ErrEmptyDescription
		}
		if s.Improving {
			return s, nil, nil
		}
		next := s.touch()
		next.Improving = true
		next.RewriteSeq = s.RewriteSeq + 1
		return next, []Effect{RewriteEffect{
			Description: s.Draft.Description,
			Seq:         next.RewriteSeq,
		}}, nil

	case RewriteCompleted:
		if !s.Improving || act.Seq != s.RewriteSeq {
			return s, nil, nil
		}
		next := s.touch()
		next.Improving = false
		if act.Text != "" {
			next.Draft.Description = act.Text
		}
		return next, nil, nil

	case Navigate:
		if !act.View.Routable() {
			return s, nil, fmt.Errorf("%w: %q", ErrUnknownView, act.View)
		}
		if s.View == act.View {
			return s, nil, nil
		}
		next := s.touch()
		next.View = act.View
		return next, nil, nil

	case UpdateDraft:
		draft := models.Draft{Title: act.Title, Description: act.Description}
		if s.Draft == draft {
			return s, nil, nil
		}
		next := s.touch()
		next.Draft = draft
		return next, nil, nil
	}

	return s, nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

func cloneSet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in)+1)
	for id := range in {
		out[id] = struct{}{}
	}
	return out
}
