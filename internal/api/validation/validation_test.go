package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleLead struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source" validate:"required,lead_source"`
	Status string `json:"status,omitempty" validate:"omitempty,lead_status"`
	Score  *int   `json:"score" validate:"omitempty,gte=0,lte=100"`
}

type sampleBatch struct {
	Leads []sampleLead `json:"leads" validate:"required,min=1,dive"`
}

func intPtr(v int) *int { return &v }

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  map[string]string
	}{
		{
			name:  "valid",
			input: sampleLead{Email: "a@example.com", Source: "website", Score: intPtr(10)},
			want:  nil,
		},
		{
			name:  "missing required",
			input: sampleLead{},
			want: map[string]string{
				"email":  "email is required",
				"source": "source is required",
			},
		},
		{
			name:  "bad enums and range",
			input: sampleLead{Email: "nope", Source: "fax", Status: "maybe", Score: intPtr(101)},
			want: map[string]string{
				"email":  "email must be a valid email",
				"source": "source must be one of website, facebook_ads, google_ads, referral, events, other",
				"status": "status must be one of new, contacted, qualified, lost, won",
				"score":  "score must be less than or equal to 100",
			},
		},
		{
			name:  "empty batch",
			input: sampleBatch{Leads: []sampleLead{}},
			want:  map[string]string{"leads": "leads must contain at least 1 items"},
		},
		{
			name:  "nested element",
			input: sampleBatch{Leads: []sampleLead{{Email: "a@example.com", Source: "website"}, {Email: "b@example.com"}}},
			want:  map[string]string{"leads[1].source": "source is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Struct(tt.input))
		})
	}
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"simple", "alice", true},
		{"with_symbols", "a.l_i-ce99", true},
		{"empty", "", false},
		{"space", "al ice", false},
		{"at_sign", "al@ice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString("  hello\x00 world\x07 "))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
}
