package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
)

func TestValidate_LeadPassesWithDomainTags(t *testing.T) {
	lead := model.Lead{
		ID:         "lead-1",
		SourceType: model.SourcePropertyInquiry,
		Status:     model.StatusNew,
		Priority:   model.PriorityHigh,
	}
	assert.NoError(t, Validate(&lead))
}

func TestValidate_LeadRejectsUnknownStatus(t *testing.T) {
	lead := model.Lead{
		ID:         "lead-1",
		SourceType: model.SourcePropertyInquiry,
		Status:     model.PipelineStatus("archived"),
	}
	err := Validate(&lead)
	require.Error(t, err)
	// Errors carry the JSON field name, not the struct field name.
	assert.Contains(t, err.Error(), "field 'status'")
	assert.Contains(t, err.Error(), "valid pipeline status")
}

func TestValidate_LeadRejectsUnknownSource(t *testing.T) {
	lead := model.Lead{
		ID:         "lead-1",
		SourceType: model.SourceType("carrier_pigeon"),
		Status:     model.StatusNew,
	}
	err := Validate(&lead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'source_type'")
}

func TestValidate_LeadPriorityIsOptional(t *testing.T) {
	lead := model.Lead{
		ID:         "lead-1",
		SourceType: model.SourceManual,
		Status:     model.StatusNew,
	}
	assert.NoError(t, Validate(&lead))

	lead.Priority = model.Priority("asap")
	err := Validate(&lead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'priority'")
}

func TestValidate_InquiryPayload(t *testing.T) {
	payload := model.InquiryPayload{
		SourceType: model.SourceUserInquiry,
		SourceID:   "property-fair-2026",
		Email:      "buyer@example.com",
	}
	assert.NoError(t, Validate(&payload))

	payload.Email = "not-an-email"
	err := Validate(&payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid email address")

	payload.Email = ""
	payload.SourceID = ""
	err = Validate(&payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'source_id'")
	assert.Contains(t, err.Error(), "is required")
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("contacted", "pipeline_status"))
	assert.Error(t, ValidateVar("archived", "pipeline_status"))
	assert.NoError(t, ValidateVar("urgent", "lead_priority"))
	assert.Error(t, ValidateVar("asap", "lead_priority"))
}
