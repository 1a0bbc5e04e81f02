package models

import (
	"fmt"
	"strings"
)

// AppView selects the screen the dashboard renders
type AppView string

const (
	ViewDashboard      AppView = "DASHBOARD"
	ViewCreateProposal AppView = "CREATE_PROPOSAL"
	ViewVoteHistory    AppView = "VOTE_HISTORY"
	ViewAIAnalysis     AppView = "AI_ANALYSIS"
	ViewDeployGuide    AppView = "DEPLOY_GUIDE"
)

// Routable reports whether the view can be navigated to. VOTE_HISTORY and
// AI_ANALYSIS are declared but have no screen.
func (v AppView) Routable() bool {
	switch v {
	case ViewDashboard, ViewCreateProposal, ViewDeployGuide:
		return true
	default:
		return false
	}
}

// ParseAppView accepts the enum value in any case, with '-' or '_' separators
func ParseAppView(s string) (AppView, error) {
	v := AppView(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch v {
	case ViewDashboard, ViewCreateProposal, ViewVoteHistory, ViewAIAnalysis, ViewDeployGuide:
		return v, nil
	}
	return "", fmt.Errorf("unknown view: %q", s)
}
