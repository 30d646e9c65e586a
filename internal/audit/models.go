package audit

import "time"

// Event records one state change for the audit trail. It stays
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	LocationID string    `json:"location_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Device     string    `json:"device,omitempty"`
}

type Action string

const (
	ActionLocationCreated       Action = "location_created"
	ActionLocationRenamed       Action = "location_renamed"
	ActionBeneficiaryRegistered Action = "beneficiary_registered"
	ActionBeneficiaryDeleted    Action = "beneficiary_deleted"

	ActionMemberAdded    Action = "list_member_added"
	ActionMemberRemoved  Action = "list_member_removed"
	ActionMemberPromoted Action = "list_member_promoted"
	ActionListResized    Action = "list_resized"

	ActionEventCreated     Action = "distribution_created"
	ActionEventDeleted     Action = "distribution_deleted"
	ActionStockDecremented Action = "distribution_stock_decremented"

	ActionVoucherIssued   Action = "voucher_issued"
	ActionVoucherRedeemed Action = "voucher_redeemed"
	ActionVoucherRejected Action = "voucher_rejected"

	ActionVolunteerCreated  Action = "volunteer_created"
	ActionVolunteerPromoted Action = "volunteer_promoted"
	ActionFirstLogin        Action = "volunteer_first_login_completed"
	ActionLoginSucceeded    Action = "login_succeeded"
	ActionLoginFailed       Action = "login_failed"
	ActionLogout            Action = "logout"
)
