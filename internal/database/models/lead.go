package models

import "time"

type LeadSource string

const (
	LeadSourceWebsite     LeadSource = "website"
	LeadSourceFacebookAds LeadSource = "facebook_ads"
	LeadSourceGoogleAds   LeadSource = "google_ads"
	LeadSourceReferral    LeadSource = "referral"
	LeadSourceEvents      LeadSource = "events"
	LeadSourceOther       LeadSource = "other"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusLost      LeadStatus = "lost"
	LeadStatusWon       LeadStatus = "won"
)

// LeadSources and LeadStatuses list the accepted enum values in display order.
var (
	LeadSources = []LeadSource{
		LeadSourceWebsite, LeadSourceFacebookAds, LeadSourceGoogleAds,
		LeadSourceReferral, LeadSourceEvents, LeadSourceOther,
	}
	LeadStatuses = []LeadStatus{
		LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusLost, LeadStatusWon,
	}
)

type Lead struct {
	Base
	UserID         uint       `gorm:"index;not null" json:"user_id"`
	FirstName      string     `gorm:"not null" json:"first_name"`
	LastName       string     `gorm:"not null" json:"last_name"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	Phone          string     `gorm:"not null" json:"phone"`
	Company        string     `gorm:"not null;index" json:"company"`
	City           string     `gorm:"not null" json:"city"`
	State          string     `gorm:"not null" json:"state"`
	Source         LeadSource `gorm:"type:varchar(32);not null" json:"source"`
	Status         LeadStatus `gorm:"type:varchar(32);not null;index;default:'new'" json:"status"`
	Score          int        `gorm:"not null;default:0" json:"score"`
	LeadValue      float64    `gorm:"not null;default:0" json:"lead_value"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	IsQualified    bool       `gorm:"not null;default:false" json:"is_qualified"`
}

func (Lead) TableName() string {
	return "leads"
}

// ApplyDefaults fills the server-side defaults for fields left empty by the client.
func (l *Lead) ApplyDefaults() {
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
}

func (s LeadSource) Valid() bool {
	for _, v := range LeadSources {
		if s == v {
			return true
		}
	}
	return false
}

func (s LeadStatus) Valid() bool {
	for _, v := range LeadStatuses {
		if s == v {
			return true
		}
	}
	return false
}
