package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/hugh/lead-hunter/internal/api/validation"
	"github.com/hugh/lead-hunter/internal/database/models"
	"github.com/hugh/lead-hunter/internal/leads"
)

// CreateLeadRequest is the client payload for a new lead. Any id or owner in
// the body is ignored.
type CreateLeadRequest struct {
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	Email          string     `json:"email" validate:"required,email,max=254"`
	Phone          string     `json:"phone" validate:"required,max=32"`
	Company        string     `json:"company" validate:"required,max=200"`
	City           string     `json:"city" validate:"required,max=100"`
	State          string     `json:"state" validate:"required,max=100"`
	Source         string     `json:"source" validate:"required,lead_source"`
	Status         string     `json:"status,omitempty" validate:"omitempty,lead_status"`
	Score          *int       `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	LeadValue      *float64   `json:"lead_value,omitempty" validate:"omitempty,gte=0"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	IsQualified    *bool      `json:"is_qualified,omitempty"`
}

func (r *CreateLeadRequest) normalize() {
	r.FirstName = validation.SanitizeString(r.FirstName)
	r.LastName = validation.SanitizeString(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = validation.SanitizeString(r.Company)
	r.City = validation.SanitizeString(r.City)
	r.State = validation.SanitizeString(r.State)
}

func (r *CreateLeadRequest) Validate() map[string]string {
	r.normalize()
	return validation.Struct(r)
}

func (r *CreateLeadRequest) ToModel() models.Lead {
	lead := models.Lead{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Company:        r.Company,
		City:           r.City,
		State:          r.State,
		Source:         models.LeadSource(r.Source),
		Status:         models.LeadStatus(r.Status),
		LastActivityAt: r.LastActivityAt,
	}
	if r.Score != nil {
		lead.Score = *r.Score
	}
	if r.LeadValue != nil {
		lead.LeadValue = *r.LeadValue
	}
	if r.IsQualified != nil {
		lead.IsQualified = *r.IsQualified
	}
	lead.ApplyDefaults()
	return lead
}

type BulkCreateLeadsRequest struct {
	Leads []CreateLeadRequest `json:"leads" validate:"required,min=1,max=1000,dive"`
}

func (r *BulkCreateLeadsRequest) Validate() map[string]string {
	for i := range r.Leads {
		r.Leads[i].normalize()
	}
	return validation.Struct(r)
}

func (r *BulkCreateLeadsRequest) ToModels() []models.Lead {
	out := make([]models.Lead, len(r.Leads))
	for i := range r.Leads {
		out[i] = r.Leads[i].ToModel()
	}
	return out
}

type BulkCreateLeadsResponse struct {
	Message string        `json:"message"`
	Data    []models.Lead `json:"data"`
}

// UpdateLeadRequest is a partial patch. Only fields present in the body change.
type UpdateLeadRequest struct {
	FirstName      *string    `json:"first_name,omitempty" validate:"omitnil,min=1,max=100"`
	LastName       *string    `json:"last_name,omitempty" validate:"omitnil,min=1,max=100"`
	Email          *string    `json:"email,omitempty" validate:"omitnil,email,max=254"`
	Phone          *string    `json:"phone,omitempty" validate:"omitnil,min=1,max=32"`
	Company        *string    `json:"company,omitempty" validate:"omitnil,min=1,max=200"`
	City           *string    `json:"city,omitempty" validate:"omitnil,min=1,max=100"`
	State          *string    `json:"state,omitempty" validate:"omitnil,min=1,max=100"`
	Source         *string    `json:"source,omitempty" validate:"omitnil,lead_source"`
	Status         *string    `json:"status,omitempty" validate:"omitnil,lead_status"`
	Score          *int       `json:"score,omitempty" validate:"omitnil,gte=0,lte=100"`
	LeadValue      *float64   `json:"lead_value,omitempty" validate:"omitnil,gte=0"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	IsQualified    *bool      `json:"is_qualified,omitempty"`
}

func (r *UpdateLeadRequest) Validate() map[string]string {
	if r.Email != nil {
		v := strings.TrimSpace(*r.Email)
		r.Email = &v
	}
	for _, p := range []*string{r.FirstName, r.LastName, r.Company, r.City, r.State} {
		if p != nil {
			*p = validation.SanitizeString(*p)
		}
	}
	return validation.Struct(r)
}

// ToPatch returns the column updates for the fields present in the request.
func (r *UpdateLeadRequest) ToPatch() map[string]interface{} {
	patch := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			patch[col] = *v
		}
	}
	setString("first_name", r.FirstName)
	setString("last_name", r.LastName)
	setString("email", r.Email)
	setString("phone", r.Phone)
	setString("company", r.Company)
	setString("city", r.City)
	setString("state", r.State)
	setString("source", r.Source)
	setString("status", r.Status)
	if r.Score != nil {
		patch["score"] = *r.Score
	}
	if r.LeadValue != nil {
		patch["lead_value"] = *r.LeadValue
	}
	if r.LastActivityAt != nil {
		patch["last_activity_at"] = r.LastActivityAt.UTC()
	}
	if r.IsQualified != nil {
		patch["is_qualified"] = *r.IsQualified
	}
	return patch
}

var ErrInvalidIDs = errors.New("ids must be a non-empty array of lead ids")

// BulkDeleteRequest accepts ids as numbers or numeric strings.
type BulkDeleteRequest struct {
	IDs json.RawMessage `json:"ids"`
}

// ParseIDs returns the de-duplicated ids or ErrInvalidIDs when the field is
// missing, empty, not an array or holds anything but positive integers.
func (r *BulkDeleteRequest) ParseIDs() ([]uint, error) {
	raw := bytes.TrimSpace(r.IDs)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidIDs
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, ErrInvalidIDs
	}

	seen := make(map[uint]struct{}, len(items))
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		id, ok := parseID(item)
		if !ok {
			return nil, ErrInvalidIDs
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(item json.RawMessage) (uint, bool) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return ParseID(s)
	}
	return ParseID(string(item))
}

// ParseID parses a positive integer resource id.
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

type ImportLeadsResponse struct {
	Message  string           `json:"message"`
	TaskID   string           `json:"task_id,omitempty"`
	Imported int              `json:"imported"`
	Skipped  []leads.RowError `json:"skipped"`
}
