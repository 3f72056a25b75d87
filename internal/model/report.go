package model

const (
	ReportMode = "offline-deterministic"
	ContractID = "activation-seed-contract/v0.15"
)

// Report is the single payload both renderers project. Field order is the
// JSON key order.
type Report struct {
	Mode               string              `json:"mode"`
	ContractID         string              `json:"contract_id"`
	FailClosed         bool                `json:"fail_closed"`
	Inputs             ReportInputs        `json:"inputs"`
	ActionableStatuses []string            `json:"actionable_statuses"`
	TriggerOrder       []TriggerID         `json:"trigger_order"`
	Freshness          ReportFreshness     `json:"freshness"`
	Triggers           []TriggerResult     `json:"triggers"`
	ActiveTriggerIDs   []TriggerID         `json:"active_trigger_ids"`
	ActivationRequired bool                `json:"activation_required"`
	OpenBlockers       OpenBlockersSummary `json:"open_blockers"`
	Overlay            OverlaySummary      `json:"t4_governance_overlay"`
	GateOpen           bool                `json:"gate_open"`
	QueueState         QueueState          `json:"queue_state"`
	ExitCode           int                 `json:"exit_code"`
}

// ReportInputs lists display paths of every input; optional inputs are nil
// when not supplied.
type ReportInputs struct {
	IssuesJSON       string  `json:"issues_json"`
	MilestonesJSON   string  `json:"milestones_json"`
	CatalogJSON      string  `json:"catalog_json"`
	OpenBlockersJSON *string `json:"open_blockers_json"`
	OverlayJSON      *string `json:"t4_governance_overlay_json"`
}

type ReportFreshness struct {
	Issues     FreshnessState `json:"issues"`
	Milestones FreshnessState `json:"milestones"`
}

type OpenBlockersSummary struct {
	Count        int       `json:"count"`
	TriggerID    TriggerID `json:"trigger_id"`
	TriggerFired bool      `json:"trigger_fired"`
}

type OverlaySummary struct {
	NewScopePublish bool          `json:"new_scope_publish"`
	Source          OverlaySource `json:"source"`
}
