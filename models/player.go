package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// Player is the durable per-user progression record (denormalized for
// performance, one row per messaging-platform identity).
type Player struct {
	ID     string `gorm:"primaryKey" json:"id"` // external messaging-platform user id
	Name   string `gorm:"not null" json:"name"`
	Avatar string `json:"avatar"`

	// Economy
	Tier         Tier  `gorm:"type:varchar(16);default:'bronze';index" json:"tier"`
	Score        int64 `json:"score" gorm:"default:0;index"`
	GamesPlayed  int64 `json:"games_played" gorm:"default:0"`
	CorrectCount int64 `json:"correct" gorm:"default:0"`
	WrongCount   int64 `json:"wrong" gorm:"default:0"`
	Streak       int64 `json:"streak" gorm:"default:0"`

	// Referral
	ReferredBy         string   `gorm:"index" json:"referred_by,omitempty"` // set at creation, never mutated
	Referrals          []string `gorm:"serializer:json" json:"referrals"`
	ReferralEarnings   int64    `json:"referral_earnings" gorm:"default:0"`
	DailyReferralCount int      `json:"daily_referral_count" gorm:"default:0"`
	LastReferralDate   string   `json:"last_referral_date,omitempty"` // YYYY-MM-DD

	// Status flags
	IsPremium        bool    `json:"is_premium" gorm:"default:false"`
	IsAdmin          bool    `json:"is_admin" gorm:"default:false"`
	PendingRequestID *string `json:"pending_request_id,omitempty"`

	// Lowercased ASCII form of Name, kept for admin search.
	SearchKey string `gorm:"index" json:"-"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Accuracy returns the rounded percentage of correct answers, 0 when the
// player has never answered.
func (p *Player) Accuracy() int {
	total := p.CorrectCount + p.WrongCount
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(p.CorrectCount) / float64(total) * 100))
}

// HasReferred reports whether id is already recorded as a referral of p.
func (p *Player) HasReferred(id string) bool {
	for _, r := range p.Referrals {
		if r == id {
			return true
		}
	}
	return false
}

// LeaderboardEntry is the public projection used by the leaderboard view
// and its Redis cache.
type LeaderboardEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Tier      Tier   `json:"tier"`
	Score     int64  `json:"score"`
	IsPremium bool   `json:"is_premium"`
}

// LeaderboardEntryFor projects a player into its leaderboard row.
func LeaderboardEntryFor(p *Player) LeaderboardEntry {
	return LeaderboardEntry{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Tier:      p.Tier,
		Score:     p.Score,
		IsPremium: p.IsPremium,
	}
}
