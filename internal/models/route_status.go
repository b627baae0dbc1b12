package models

import "fmt"

// RouteStatus represents where an advertising route is in the back-office workflow
type RouteStatus string

const (
	RouteStatusPending          RouteStatus = "pending"           // Request submitted by the customer
	RouteStatusProposalPending  RouteStatus = "proposal_pending"  // Work plan being prepared
	RouteStatusProposalReady    RouteStatus = "proposal_ready"    // Work plan sent to the customer
	RouteStatusProposalApproved RouteStatus = "proposal_approved" // Customer approved the plan
	RouteStatusPaymentPending   RouteStatus = "payment_pending"
	RouteStatusPaymentCompleted RouteStatus = "payment_completed"
	RouteStatusFinalApproval    RouteStatus = "final_approval"
	RouteStatusScheduled        RouteStatus = "scheduled"
	RouteStatusActive           RouteStatus = "active" // Display units are on the street
	RouteStatusPaused           RouteStatus = "paused"
	RouteStatusCompleted        RouteStatus = "completed"
	RouteStatusCancelled        RouteStatus = "cancelled"
)

// AllRouteStatuses lists every status in workflow order.
// paused and cancelled sit outside the main sequence.
var AllRouteStatuses = []RouteStatus{
	RouteStatusPending,
	RouteStatusProposalPending,
	RouteStatusProposalReady,
	RouteStatusProposalApproved,
	RouteStatusPaymentPending,
	RouteStatusPaymentCompleted,
	RouteStatusFinalApproval,
	RouteStatusScheduled,
	RouteStatusActive,
	RouteStatusPaused,
	RouteStatusCompleted,
	RouteStatusCancelled,
}

// ParseRouteStatus validates a status literal coming from the database or the admin API
func ParseRouteStatus(s string) (RouteStatus, error) {
	status := RouteStatus(s)
	if _, ok := statusPresentation[status]; !ok {
		return "", fmt.Errorf("unknown route status: %q", s)
	}
	return status, nil
}

// Color is a named presentation colour plus its hex value
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type presentation struct {
	description string
	color       Color
}

var statusPresentation = map[RouteStatus]presentation{
	RouteStatusPending:          {"Request received", Color{"orange", "#FF9500"}},
	RouteStatusProposalPending:  {"Preparing work plan", Color{"blue", "#007AFF"}},
	RouteStatusProposalReady:    {"Work plan ready", Color{"indigo", "#5856D6"}},
	RouteStatusProposalApproved: {"Work plan approved", Color{"teal", "#30B0C7"}},
	RouteStatusPaymentPending:   {"Awaiting payment", Color{"yellow", "#FFCC00"}},
	RouteStatusPaymentCompleted: {"Payment received", Color{"mint", "#00C7BE"}},
	RouteStatusFinalApproval:    {"Final approval", Color{"purple", "#AF52DE"}},
	RouteStatusScheduled:        {"Scheduled", Color{"cyan", "#32ADE6"}},
	RouteStatusActive:           {"Active", Color{"green", "#34C759"}},
	RouteStatusPaused:           {"Paused", Color{"gray", "#8E8E93"}},
	RouteStatusCompleted:        {"Completed", Color{"green", "#248A3D"}},
	RouteStatusCancelled:        {"Cancelled", Color{"red", "#FF3B30"}},
}

// StatusColor returns the badge colour for a status
func (s RouteStatus) StatusColor() Color {
	if p, ok := statusPresentation[s]; ok {
		return p.color
	}
	return Color{"gray", "#8E8E93"}
}

// StatusDescription returns the human readable label for a status
func (s RouteStatus) StatusDescription() string {
	if p, ok := statusPresentation[s]; ok {
		return p.description
	}
	return string(s)
}

// statusSet is an explicit allow-list. Predicates are membership tests so that
// inserting a new stage never silently changes an existing answer.
type statusSet map[RouteStatus]struct{}

func newStatusSet(statuses ...RouteStatus) statusSet {
	set := make(statusSet, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}

func (set statusSet) has(s RouteStatus) bool {
	_, ok := set[s]
	return ok
}

var (
	liveTrackingStatuses    = newStatusSet(RouteStatusActive)
	waitingProposalStatuses = newStatusSet(RouteStatusProposalPending, RouteStatusProposalReady)
	waitingPaymentStatuses  = newStatusSet(RouteStatusPaymentPending)
	waitingApprovalStatuses = newStatusSet(RouteStatusProposalApproved, RouteStatusFinalApproval)
	scheduledStatuses       = newStatusSet(RouteStatusScheduled)
	proposalPhaseStatuses   = newStatusSet(RouteStatusProposalPending, RouteStatusProposalReady, RouteStatusProposalApproved)

	afterProposalStatuses = newStatusSet(
		RouteStatusProposalApproved, RouteStatusPaymentPending, RouteStatusPaymentCompleted,
		RouteStatusFinalApproval, RouteStatusScheduled, RouteStatusActive, RouteStatusCompleted,
	)
	afterApprovalStatuses = newStatusSet(
		RouteStatusPaymentPending, RouteStatusPaymentCompleted, RouteStatusFinalApproval,
		RouteStatusScheduled, RouteStatusActive, RouteStatusCompleted,
	)
	afterPaymentStatuses = newStatusSet(
		RouteStatusPaymentCompleted, RouteStatusFinalApproval, RouteStatusScheduled,
		RouteStatusActive, RouteStatusCompleted,
	)
	afterFinalApprovalStatuses = newStatusSet(
		RouteStatusScheduled, RouteStatusActive, RouteStatusCompleted,
	)
)

func (s RouteStatus) CanStartLiveTracking() bool { return liveTrackingStatuses.has(s) }
func (s RouteStatus) IsWaitingForProposal() bool { return waitingProposalStatuses.has(s) }
func (s RouteStatus) IsWaitingForPayment() bool  { return waitingPaymentStatuses.has(s) }
func (s RouteStatus) IsWaitingForApproval() bool { return waitingApprovalStatuses.has(s) }
func (s RouteStatus) IsScheduled() bool          { return scheduledStatuses.has(s) }
func (s RouteStatus) IsInProposalPhase() bool    { return proposalPhaseStatuses.has(s) }
func (s RouteStatus) IsAfterProposal() bool      { return afterProposalStatuses.has(s) }
func (s RouteStatus) IsAfterApproval() bool      { return afterApprovalStatuses.has(s) }
func (s RouteStatus) IsAfterPayment() bool       { return afterPaymentStatuses.has(s) }
func (s RouteStatus) IsAfterFinalApproval() bool { return afterFinalApprovalStatuses.has(s) }

// StatusFlags is the JSON view of every predicate, so clients don't re-implement them
type StatusFlags struct {
	Description          string `json:"description"`
	Color                Color  `json:"color"`
	CanStartLiveTracking bool   `json:"can_start_live_tracking"`
	IsWaitingForProposal bool   `json:"is_waiting_for_proposal"`
	IsWaitingForPayment  bool   `json:"is_waiting_for_payment"`
	IsWaitingForApproval bool   `json:"is_waiting_for_approval"`
	IsScheduled          bool   `json:"is_scheduled"`
	IsInProposalPhase    bool   `json:"is_in_proposal_phase"`
	IsAfterProposal      bool   `json:"is_after_proposal"`
	IsAfterApproval      bool   `json:"is_after_approval"`
	IsAfterPayment       bool   `json:"is_after_payment"`
	IsAfterFinalApproval bool   `json:"is_after_final_approval"`
}

// Flags evaluates all predicates for a status
func (s RouteStatus) Flags() StatusFlags {
	return StatusFlags{
		Description:          s.StatusDescription(),
		Color:                s.StatusColor(),
		CanStartLiveTracking: s.CanStartLiveTracking(),
		IsWaitingForProposal: s.IsWaitingForProposal(),
		IsWaitingForPayment:  s.IsWaitingForPayment(),
		IsWaitingForApproval: s.IsWaitingForApproval(),
		IsScheduled:          s.IsScheduled(),
		IsInProposalPhase:    s.IsInProposalPhase(),
		IsAfterProposal:      s.IsAfterProposal(),
		IsAfterApproval:      s.IsAfterApproval(),
		IsAfterPayment:       s.IsAfterPayment(),
		IsAfterFinalApproval: s.IsAfterFinalApproval(),
	}
}

// WorkflowStep is one row of the progress checklist on the route detail screen
type WorkflowStep struct {
	Key       string `json:"key"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// WorkflowSteps returns the ordered progress checklist for a status
func (s RouteStatus) WorkflowSteps() []WorkflowStep {
	return []WorkflowStep{
		{Key: "request_created", Title: "Advertising request created", Completed: true},
		{Key: "proposal_preparing", Title: "Work plan being prepared", Completed: s.IsInProposalPhase() || s.IsAfterProposal()},
		{Key: "proposal_sent", Title: "Work plan sent for approval", Completed: s.IsAfterProposal()},
		{Key: "company_approval", Title: "Company approval", Completed: s.IsAfterApproval()},
		{Key: "payment", Title: "Payment", Completed: s.IsAfterPayment()},
		{Key: "final_approval", Title: "Final approval", Completed: s.IsAfterFinalApproval()},
		{Key: "live_tracking", Title: "Live tracking", Completed: s == RouteStatusActive},
	}
}
