package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

func newTestLeadRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	t.Helper()
	gormDB, mock, teardown := newMockDB(t)
	t.Cleanup(teardown)
	return &PostgresRepo{db: gormDB}, mock
}

func fullLead(id string) model.Lead {
	return model.Lead{
		ID:            id,
		Name:          "Asha Kulkarni",
		Phone:         "9876543210",
		Email:         "asha@example.com",
		SourceType:    model.SourcePropertyInquiry,
		SourceID:      "prop-11",
		PropertyID:    "prop-11",
		PropertyTitle: "2BHK in Waluj",
		City:          "Aurangabad",
		Location:      "Waluj",
		BudgetRange:   "40-50L",
		PropertyType:  "apartment",
		Purpose:       "buy",
		Status:        model.StatusNew,
		Priority:      model.PriorityMedium,
		Tags:          datatypes.JSONSlice[string]([]string{"site-visit"}),
		Notes:         "Interested in a site visit",
		LastMetadata:  datatypes.JSON(utils.MustMarshalJSON(map[string]interface{}{"stream": "inquiry_events"})),
	}
}

const leadColumns = `"id","name","phone","email","source_type","source_id","property_id","property_title","city","location","budget_range","property_type","purpose","status","priority","tags","assigned_admin_id","notes","created_at","updated_at","last_contacted_at","next_follow_up_at","last_metadata"`

func TestPostgresRepo_FetchAllLeads(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	now := time.Now()

	cols := []string{"id", "phone", "status", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("lead-2", "999", "contacted", now, now).
		AddRow("lead-1", "999", "new", now.Add(-time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery(`SELECT * FROM "leads" ORDER BY created_at DESC`).WillReturnRows(rows)

	leads, err := repo.FetchAllLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-2", leads[0].ID)
	assert.Equal(t, model.StatusContacted, leads[0].Status)
}

func TestPostgresRepo_FindLeadByID_Found(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	now := time.Now()

	cols := []string{"id", "phone", "status", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).AddRow("lead-1", "999", "new", now, now)
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2`
	mock.ExpectQuery(selectQuery).WithArgs("lead-1", 1).WillReturnRows(rows)

	found, err := repo.FindLeadByID(context.Background(), "lead-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "lead-1", found.ID)
	assert.Equal(t, "999", found.Phone)
}

func TestPostgresRepo_FindLeadByID_NotFound(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2`
	mock.ExpectQuery(selectQuery).WithArgs("lead-404", 1).WillReturnError(gorm.ErrRecordNotFound)

	found, err := repo.FindLeadByID(context.Background(), "lead-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, found)
}

func TestPostgresRepo_SaveLead_Insert(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	lead := fullLead("lead-insert-1")

	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs(lead.ID, 1).WillReturnError(gorm.ErrRecordNotFound)

	insertQuery := `INSERT INTO "leads" (` + leadColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)`
	mock.ExpectExec(insertQuery).
		WithArgs(
			lead.ID, lead.Name, lead.Phone, lead.Email, lead.SourceType,
			lead.SourceID, lead.PropertyID, lead.PropertyTitle, lead.City, lead.Location,
			lead.BudgetRange, lead.PropertyType, lead.Purpose, lead.Status, lead.Priority,
			AnyJSON{}, nil, lead.Notes, AnyTime{}, AnyTime{},
			nil, nil, AnyJSON{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveLead(context.Background(), lead)
	assert.NoError(t, err)
}

func TestPostgresRepo_SaveLead_Update(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	now := time.Now()
	lead := model.Lead{
		ID:         "lead-update-1",
		Name:       "Asha Kulkarni",
		Phone:      "9876543210",
		SourceType: model.SourcePropertyInquiry,
		Status:     model.StatusContacted,
	}

	existingCols := []string{"id", "phone", "status", "created_at", "updated_at"}
	existingRows := sqlmock.NewRows(existingCols).AddRow(lead.ID, "9876543210", "new", now.Add(-time.Hour), now.Add(-time.Minute))

	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "leads" WHERE id = $1 ORDER BY "leads"."id" LIMIT $2 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs(lead.ID, 1).WillReturnRows(existingRows)
	updateQuery := `UPDATE "leads" SET "id"=$1,"name"=$2,"phone"=$3,"source_type"=$4,"status"=$5,"updated_at"=$6 WHERE "id" = $7`
	mock.ExpectExec(updateQuery).
		WithArgs(lead.ID, lead.Name, lead.Phone, lead.SourceType, lead.Status, AnyTime{}, lead.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveLead(context.Background(), lead)
	assert.NoError(t, err)
}

func TestPostgresRepo_BulkUpsertLeads_Success(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	leads := []model.Lead{fullLead("bulk-lead-1"), fullLead("bulk-lead-2")}

	upsertQuery := `INSERT INTO "leads" (` + leadColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23),($24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,$41,$42,$43,$44,$45,$46) ON CONFLICT ("id") DO UPDATE SET "name"="excluded"."name","phone"="excluded"."phone","email"="excluded"."email","property_title"="excluded"."property_title","city"="excluded"."city","location"="excluded"."location","budget_range"="excluded"."budget_range","property_type"="excluded"."property_type","purpose"="excluded"."purpose","notes"="excluded"."notes","tags"="excluded"."tags","updated_at"="excluded"."updated_at","last_metadata"="excluded"."last_metadata"`
	mock.ExpectExec(upsertQuery).WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.BulkUpsertLeads(context.Background(), leads)
	assert.NoError(t, err)
}

func TestPostgresRepo_BulkUpsertLeads_EmptySliceIsNoop(t *testing.T) {
	repo, _ := newTestLeadRepo(t)

	err := repo.BulkUpsertLeads(context.Background(), nil)
	assert.NoError(t, err)
}

func TestPostgresRepo_AssignLeads_Success(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	adminID := "admin-a"

	updateQuery := `UPDATE "leads" SET "assigned_admin_id"=$1,"updated_at"=$2 WHERE id IN ($3,$4)`
	mock.ExpectExec(updateQuery).
		WithArgs(adminID, AnyTime{}, "lead-1", "lead-2").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.AssignLeads(context.Background(), []string{"lead-1", "lead-2"}, &adminID)
	assert.NoError(t, err)
}

func TestPostgresRepo_AssignLeads_NilUnassigns(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	updateQuery := `UPDATE "leads" SET "assigned_admin_id"=$1,"updated_at"=$2 WHERE id IN ($3)`
	mock.ExpectExec(updateQuery).
		WithArgs(nil, AnyTime{}, "lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AssignLeads(context.Background(), []string{"lead-1"}, nil)
	assert.NoError(t, err)
}

func TestPostgresRepo_AssignLeads_NoRowsMatched(t *testing.T) {
	repo, mock := newTestLeadRepo(t)
	adminID := "admin-a"

	updateQuery := `UPDATE "leads" SET "assigned_admin_id"=$1,"updated_at"=$2 WHERE id IN ($3)`
	mock.ExpectExec(updateQuery).
		WithArgs(adminID, AnyTime{}, "lead-stale").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AssignLeads(context.Background(), []string{"lead-stale"}, &adminID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresRepo_AssignLeads_EmptyIDsIsNoop(t *testing.T) {
	repo, _ := newTestLeadRepo(t)

	err := repo.AssignLeads(context.Background(), nil, nil)
	assert.NoError(t, err)
}

func TestPostgresRepo_UpdateLeadStatus_Success(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	updateQuery := `UPDATE "leads" SET "status"=$1,"updated_at"=$2 WHERE id = $3`
	mock.ExpectExec(updateQuery).
		WithArgs(model.StatusQualified, AnyTime{}, "lead-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLeadStatus(context.Background(), "lead-1", model.StatusQualified)
	assert.NoError(t, err)
}

func TestPostgresRepo_UpdateLeadStatus_InvalidStatus(t *testing.T) {
	repo, _ := newTestLeadRepo(t)

	err := repo.UpdateLeadStatus(context.Background(), "lead-1", model.PipelineStatus("archived"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPostgresRepo_UpdateLeadStatus_NotFound(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	updateQuery := `UPDATE "leads" SET "status"=$1,"updated_at"=$2 WHERE id = $3`
	mock.ExpectExec(updateQuery).
		WithArgs(model.StatusClosed, AnyTime{}, "lead-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLeadStatus(context.Background(), "lead-404", model.StatusClosed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresRepo_UpdateLeadStatusByPhone_Success(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	updateQuery := `UPDATE "leads" SET "status"=$1,"updated_at"=$2 WHERE phone = $3`
	mock.ExpectExec(updateQuery).
		WithArgs(model.StatusContacted, AnyTime{}, "999").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.UpdateLeadStatusByPhone(context.Background(), "999", model.StatusContacted)
	assert.NoError(t, err)
}

func TestPostgresRepo_UpdateLeadStatusByPhone_EmptyPhone(t *testing.T) {
	repo, _ := newTestLeadRepo(t)

	err := repo.UpdateLeadStatusByPhone(context.Background(), "", model.StatusContacted)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestPostgresRepo_LeadExistsBySource(t *testing.T) {
	repo, mock := newTestLeadRepo(t)

	countQuery := `SELECT count(*) FROM "leads" WHERE phone = $1 AND source_id = $2`
	mock.ExpectQuery(countQuery).
		WithArgs("999", "prop-11").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.LeadExistsBySource(context.Background(), "999", "prop-11")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(countQuery).
		WithArgs("999", "prop-99").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err = repo.LeadExistsBySource(context.Background(), "999", "prop-99")
	require.NoError(t, err)
	assert.False(t, exists)
}
