package models

import "time"

// PaymentKind indicates what a payment request purchases
type PaymentKind string

const (
	PaymentKindPremium     PaymentKind = "premium"
	PaymentKindTierUpgrade PaymentKind = "tier_upgrade"
)

// PaymentStatus indicates where a request is in the approval workflow
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// PaymentRequest is a manually-verified purchase request. The player
// snapshot fields (name/avatar/tier) are captured at submission time and
// never re-read, so the audit trail reflects what the admin actually saw.
type PaymentRequest struct {
	ID       string `gorm:"primaryKey" json:"id"`
	PlayerID string `gorm:"index;not null" json:"player_id"`

	// Snapshot at submission
	PlayerName   string `json:"player_name"`
	PlayerAvatar string `json:"player_avatar"`
	PlayerTier   Tier   `json:"player_tier"`

	Kind       PaymentKind `gorm:"type:varchar(16);not null" json:"kind"`
	TargetTier Tier        `gorm:"type:varchar(16)" json:"target_tier,omitempty"` // set for tier upgrades

	// Display-only strings, never interpreted
	Amount  string `json:"amount"`
	Product string `json:"product"`

	// Proof artifact (receipt screenshot), opaque URL
	ProofURL string `gorm:"type:text" json:"proof_url,omitempty"`

	Status PaymentStatus `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	// Reference to the admin-facing approval prompt, edited on resolution
	PromptRef string `json:"-"`

	SubmittedAt time.Time  `json:"submitted_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  string     `json:"resolved_by,omitempty"`

	Timestamps
}

// Terminal reports whether the request has been resolved; terminal
// requests permit no further transition.
func (p *PaymentRequest) Terminal() bool {
	return p.Status != PaymentStatusPending
}
