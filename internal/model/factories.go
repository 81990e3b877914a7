package model

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewLead creates a Lead with fake but plausible marketplace data.
// An optional override is merged on top of the generated defaults.
func NewLead(overrideDefaults ...*Lead) *Lead {
	base := &Lead{
		ID:            uuid.NewString(),
		Name:          gofakeit.Name(),
		Phone:         gofakeit.Numerify("9#########"),
		Email:         gofakeit.Email(),
		SourceType:    SourceType(gofakeit.RandomString([]string{string(SourcePropertyInquiry), string(SourceUserInquiry), string(SourceManual)})),
		SourceID:      uuid.NewString(),
		PropertyID:    uuid.NewString(),
		PropertyTitle: gofakeit.Sentence(3),
		City:          gofakeit.City(),
		Location:      gofakeit.StreetName(),
		BudgetRange:   gofakeit.RandomString([]string{"20L-40L", "40L-60L", "60L-1Cr", "1Cr+"}),
		PropertyType:  gofakeit.RandomString([]string{"flat", "plot", "villa", "commercial"}),
		Purpose:       gofakeit.RandomString([]string{"buy", "rent", "invest"}),
		Status:        StatusNew,
		Priority:      Priority(gofakeit.RandomString([]string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh)})),
		Tags:          datatypes.NewJSONSlice([]string{gofakeit.Word()}),
		CreatedAt:     utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt:     utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		// Identity fields may be overridden with empty strings to exercise the
		// synthetic grouping key, so assign them directly.
		base.Name = ovr.Name
		base.Phone = ovr.Phone
		base.Email = ovr.Email
		if ovr.SourceType != "" {
			base.SourceType = ovr.SourceType
		}
		if ovr.SourceID != "" {
			base.SourceID = ovr.SourceID
		}
		base.PropertyID = ovr.PropertyID
		base.PropertyTitle = ovr.PropertyTitle
		if ovr.City != "" {
			base.City = ovr.City
		}
		if ovr.Location != "" {
			base.Location = ovr.Location
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.Priority != "" {
			base.Priority = ovr.Priority
		}
		if ovr.AssignedAdminID != nil {
			base.AssignedAdminID = ovr.AssignedAdminID
		}
		if len(ovr.Tags) > 0 {
			base.Tags = ovr.Tags
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
		if !ovr.UpdatedAt.IsZero() {
			base.UpdatedAt = ovr.UpdatedAt
		}
	}
	return base
}

// NewAdminUser creates an AdminUser with default fake data.
func NewAdminUser(overrideDefaults ...*AdminUser) *AdminUser {
	base := &AdminUser{
		ID:        uuid.NewString(),
		Username:  gofakeit.Username(),
		Role:      RoleAdmin,
		IsActive:  true,
		CreatedAt: utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt: utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Username != "" {
			base.Username = ovr.Username
		}
		if ovr.Role != "" {
			base.Role = ovr.Role
		}
		base.IsActive = ovr.IsActive
	}
	return base
}

// NewInquiryPayload creates an InquiryPayload with default fake data.
func NewInquiryPayload(overrideDefaults ...*InquiryPayload) *InquiryPayload {
	base := &InquiryPayload{
		SourceType:    SourcePropertyInquiry,
		SourceID:      uuid.NewString(),
		Name:          gofakeit.Name(),
		Phone:         gofakeit.Numerify("9#########"),
		Email:         gofakeit.Email(),
		PropertyID:    uuid.NewString(),
		PropertyTitle: gofakeit.Sentence(3),
		City:          gofakeit.City(),
		Location:      gofakeit.StreetName(),
		BudgetRange:   "40L-60L",
		PropertyType:  "flat",
		Purpose:       "buy",
		Message:       gofakeit.Sentence(8),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.SourceType != "" {
			base.SourceType = ovr.SourceType
		}
		if ovr.SourceID != "" {
			base.SourceID = ovr.SourceID
		}
		base.Name = ovr.Name
		base.Phone = ovr.Phone
		base.Email = ovr.Email
		base.PropertyID = ovr.PropertyID
		base.PropertyTitle = ovr.PropertyTitle
	}
	return base
}
