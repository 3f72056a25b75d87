package model

// TriggerID names one of the fixed activation triggers.
type TriggerID string

const (
	TriggerIssues         TriggerID = "T1-ISSUES"
	TriggerMilestones     TriggerID = "T2-MILESTONES"
	TriggerActionableRows TriggerID = "T3-ACTIONABLE-ROWS"
	TriggerOpenBlockers   TriggerID = "T5-OPEN-BLOCKERS"
)

// TriggerResult is the evaluated state of one trigger. Fired is always Count > 0.
type TriggerResult struct {
	ID        TriggerID `json:"id"`
	Condition string    `json:"condition"`
	Count     int       `json:"count"`
	Fired     bool      `json:"fired"`
}

type OverlaySource string

const (
	OverlaySourceCLI     OverlaySource = "cli-flag"
	OverlaySourceFile    OverlaySource = "overlay-json"
	OverlaySourceDefault OverlaySource = "default-false"
)

// OverlayState is the resolved new-scope-publish override. Path is empty
// unless the value came from an overlay file.
type OverlayState struct {
	NewScopePublish bool
	Source          OverlaySource
	Path            string
}

// FreshnessState describes one snapshot freshness check. When Requested is
// false every other field is nil.
type FreshnessState struct {
	Requested      bool    `json:"requested"`
	MaxAgeSeconds  *int64  `json:"max_age_seconds"`
	GeneratedAtUTC *string `json:"generated_at_utc"`
	AgeSeconds     *int64  `json:"age_seconds"`
	Fresh          *bool   `json:"fresh"`
}

// OpenBlockersState is the validated open-blocker count. Path is empty when
// no blockers snapshot was supplied.
type OpenBlockersState struct {
	Count int
	Path  string
}

type QueueState string

const (
	QueueIdle         QueueState = "idle"
	QueueDispatchOpen QueueState = "dispatch-open"
)

// Decision is derived by the gate reducer and never set field by field.
type Decision struct {
	ActiveTriggerIDs   []TriggerID
	ActivationRequired bool
	GateOpen           bool
	QueueState         QueueState
	ExitCode           int
}
