package lifecycle

import "github.com/spec-kit/verification-service/internal/domain"

// Action names a lifecycle operation a caller may request.
type Action string

const (
	ActionStartSearch          Action = "START_SEARCH"
	ActionSchedule             Action = "SCHEDULE"
	ActionAgentAccepted        Action = "AGENT_ACCEPTED"
	ActionNoAgentFound         Action = "NO_AGENT_FOUND"
	ActionSLAExpired           Action = "SLA_EXPIRED"
	ActionActivateScheduled    Action = "ACTIVATE_SCHEDULED"
	ActionStartWork            Action = "START_WORK"
	ActionExtendSLA            Action = "EXTEND_SLA"
	ActionCompletionSLAExpired Action = "COMPLETION_SLA_EXPIRED"
	ActionComplete             Action = "COMPLETE"
	ActionResumeWork           Action = "RESUME_WORK"
	ActionCancelByCustomer     Action = "CANCEL_BY_CUSTOMER"
	ActionAgentFailed          Action = "AGENT_FAILED"
	ActionRetryAssignment      Action = "RETRY_ASSIGNMENT"
	ActionRefund               Action = "REFUND"
	ActionStartRecurring       Action = "START_RECURRING"
	ActionPauseRecurring       Action = "PAUSE_RECURRING"
	ActionResumeRecurring      Action = "RESUME_RECURRING"
	ActionCompleteRecurring    Action = "COMPLETE_RECURRING"
)

// EffectKind tags a side effect executed when a transition commits. The
// implementations live in the application layer; the engine only sequences
// them.
type EffectKind string

const (
	EffectNotifyAgentPool             EffectKind = "notify_agent_pool"
	EffectNotifyCustomerScheduled     EffectKind = "notify_customer_scheduled"
	EffectNotifyCustomerAgentAssigned EffectKind = "notify_customer_agent_assigned"
	EffectNotifyCustomerWorkStarted   EffectKind = "notify_customer_work_started"
	EffectNotifyCustomerExtended      EffectKind = "notify_customer_extended"
	EffectNotifyCustomerCompleted     EffectKind = "notify_customer_completed"
	EffectNotifyCustomerRefunded      EffectKind = "notify_customer_refunded"
	EffectNotifyCustomerExpired       EffectKind = "notify_customer_expired"
	EffectNotifyAgentCancelled        EffectKind = "notify_agent_cancelled"
	EffectNotifyOpsReassignment       EffectKind = "notify_ops_reassignment"
	EffectReleasePaymentHold          EffectKind = "release_payment_hold"
	EffectCapturePayment              EffectKind = "capture_payment"
	EffectRecomputeDeadlines          EffectKind = "recompute_deadlines"
	EffectBroadcastIntegrations       EffectKind = "broadcast_integrations"
)

// ValidationResult carries either a pass or a failure reason.
type ValidationResult struct {
	OK     bool
	Reason string
}

// Pass returns a passing result.
func Pass() ValidationResult { return ValidationResult{OK: true} }

// Fail returns a failing result with the given reason.
func Fail(reason string) ValidationResult { return ValidationResult{Reason: reason} }

// Validation is a named precondition checked against the full context
// before a transition commits.
type Validation struct {
	Name  string
	Check func(Context) ValidationResult
}

// Transition is a single legal edge in the lifecycle state machine.
type Transition struct {
	From        domain.RequestStatus
	Action      Action
	To          domain.RequestStatus
	Validations []Validation
	Effects     []EffectKind
}

type transitionKey struct {
	from   domain.RequestStatus
	action Action
}

// Table is the immutable registry of legal transitions, keyed by
// (from status, action). Build it once at startup and share it read-only.
type Table struct {
	entries map[transitionKey]Transition
	byFrom  map[domain.RequestStatus][]Action
}

var requireAgentAssigned = Validation{
	Name: "agent_assigned",
	Check: func(c Context) ValidationResult {
		if c.AgentID == "" {
			return Fail("agent id is required to accept assignment")
		}
		return Pass()
	},
}

var requireExtensionAllowed = Validation{
	Name: "extension_allowed",
	Check: func(c Context) ValidationResult {
		if !c.Policy.AllowExtension || c.Policy.ExtensionHours <= 0 {
			return Fail("request type does not allow SLA extension")
		}
		return Pass()
	},
}

// NewTable builds the full transition set.
func NewTable() *Table {
	transitions := []Transition{
		{From: domain.StatusCreated, Action: ActionStartSearch, To: domain.StatusPendingAssignment,
			Effects: []EffectKind{EffectNotifyAgentPool}},
		{From: domain.StatusCreated, Action: ActionSchedule, To: domain.StatusScheduled,
			Effects: []EffectKind{EffectNotifyCustomerScheduled}},

		{From: domain.StatusPendingAssignment, Action: ActionAgentAccepted, To: domain.StatusAssigned,
			Validations: []Validation{requireAgentAssigned},
			Effects:     []EffectKind{EffectNotifyCustomerAgentAssigned, EffectBroadcastIntegrations}},
		{From: domain.StatusPendingAssignment, Action: ActionNoAgentFound, To: domain.StatusRefunded,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerRefunded}},
		{From: domain.StatusPendingAssignment, Action: ActionSLAExpired, To: domain.StatusExpired,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerExpired}},

		{From: domain.StatusScheduled, Action: ActionActivateScheduled, To: domain.StatusPendingAssignment,
			Effects: []EffectKind{EffectNotifyAgentPool}},

		{From: domain.StatusAssigned, Action: ActionStartWork, To: domain.StatusInProgress,
			Effects: []EffectKind{EffectNotifyCustomerWorkStarted}},
		{From: domain.StatusAssigned, Action: ActionExtendSLA, To: domain.StatusExtended,
			Validations: []Validation{requireExtensionAllowed},
			Effects:     []EffectKind{EffectRecomputeDeadlines, EffectNotifyCustomerExtended}},
		{From: domain.StatusAssigned, Action: ActionCompletionSLAExpired, To: domain.StatusExpired,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerExpired}},

		{From: domain.StatusInProgress, Action: ActionComplete, To: domain.StatusCompleted,
			Effects: []EffectKind{EffectCapturePayment, EffectNotifyCustomerCompleted, EffectBroadcastIntegrations}},
		{From: domain.StatusInProgress, Action: ActionExtendSLA, To: domain.StatusExtended,
			Validations: []Validation{requireExtensionAllowed},
			Effects:     []EffectKind{EffectRecomputeDeadlines, EffectNotifyCustomerExtended}},
		{From: domain.StatusInProgress, Action: ActionCompletionSLAExpired, To: domain.StatusExpired,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerExpired}},

		{From: domain.StatusExtended, Action: ActionResumeWork, To: domain.StatusInProgress},
		{From: domain.StatusExtended, Action: ActionComplete, To: domain.StatusCompleted,
			Effects: []EffectKind{EffectCapturePayment, EffectNotifyCustomerCompleted, EffectBroadcastIntegrations}},
		{From: domain.StatusExtended, Action: ActionCompletionSLAExpired, To: domain.StatusExpired,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerExpired}},

		{From: domain.StatusReassignmentNeeded, Action: ActionRetryAssignment, To: domain.StatusPendingAssignment,
			Effects: []EffectKind{EffectNotifyAgentPool}},
		{From: domain.StatusReassignmentNeeded, Action: ActionRefund, To: domain.StatusRefunded,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyCustomerRefunded}},

		{From: domain.StatusCompleted, Action: ActionStartRecurring, To: domain.StatusRecurringActive,
			Effects: []EffectKind{EffectBroadcastIntegrations}},
		{From: domain.StatusRecurringActive, Action: ActionPauseRecurring, To: domain.StatusRecurringPaused},
		{From: domain.StatusRecurringPaused, Action: ActionResumeRecurring, To: domain.StatusRecurringActive},
		{From: domain.StatusRecurringActive, Action: ActionCompleteRecurring, To: domain.StatusRecurringCompleted,
			Effects: []EffectKind{EffectNotifyCustomerCompleted}},
	}

	for _, from := range []domain.RequestStatus{
		domain.StatusCreated,
		domain.StatusPendingAssignment,
		domain.StatusScheduled,
		domain.StatusAssigned,
	} {
		transitions = append(transitions, Transition{
			From: from, Action: ActionCancelByCustomer, To: domain.StatusCancelled,
			Effects: []EffectKind{EffectReleasePaymentHold, EffectNotifyAgentCancelled},
		})
	}

	for _, from := range []domain.RequestStatus{
		domain.StatusAssigned,
		domain.StatusInProgress,
		domain.StatusExtended,
	} {
		transitions = append(transitions, Transition{
			From: from, Action: ActionAgentFailed, To: domain.StatusReassignmentNeeded,
			Effects: []EffectKind{EffectNotifyOpsReassignment},
		})
	}

	table := &Table{
		entries: make(map[transitionKey]Transition, len(transitions)),
		byFrom:  make(map[domain.RequestStatus][]Action),
	}
	for _, tr := range transitions {
		key := transitionKey{from: tr.From, action: tr.Action}
		if _, exists := table.entries[key]; exists {
			// the table is authored here; a duplicate key is a programming error
			panic("duplicate transition registered: " + string(tr.From) + "/" + string(tr.Action))
		}
		table.entries[key] = tr
		table.byFrom[tr.From] = append(table.byFrom[tr.From], tr.Action)
	}
	return table
}

// Lookup returns the transition registered for (from, action), if any.
func (t *Table) Lookup(from domain.RequestStatus, action Action) (Transition, bool) {
	tr, ok := t.entries[transitionKey{from: from, action: action}]
	return tr, ok
}

// ActionsFrom lists the actions registered for the given status, in
// registration order. The returned slice is a copy.
func (t *Table) ActionsFrom(from domain.RequestStatus) []Action {
	actions := t.byFrom[from]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}
