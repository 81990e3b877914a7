package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/board"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy to HTTP status codes. Anything not
// recognized is treated as an upstream failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case apperrors.IsNotFoundError(err):
		status = http.StatusNotFound
	case apperrors.IsValidationError(err), apperrors.IsBadRequestError(err):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case apperrors.IsDuplicateError(err):
		status = http.StatusConflict
	}
	utils.WriteJSONResponse(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// handleGetBoard returns the multi-admin board view. An optional ?search=
// query narrows the view without touching the sticky filter.
func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	var view board.View
	if search, ok := r.URL.Query()["search"]; ok && len(search) > 0 {
		view = s.board.View(search[0])
	} else {
		view = s.board.View()
	}
	utils.WriteJSONResponse(w, http.StatusOK, view)
}

// handleGetPipelineBoard returns the single-admin pipeline view.
func (s *Server) handleGetPipelineBoard(w http.ResponseWriter, r *http.Request) {
	var view board.PipelineView
	if search, ok := r.URL.Query()["search"]; ok && len(search) > 0 {
		view = s.board.PipelineView(search[0])
	} else {
		view = s.board.PipelineView()
	}
	utils.WriteJSONResponse(w, http.StatusOK, view)
}

// handleRefresh forces a full snapshot reload from the store.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

type createLeadRequest struct {
	Name          string           `json:"name"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email"`
	SourceType    model.SourceType `json:"source_type"`
	SourceID      string           `json:"source_id"`
	PropertyID    string           `json:"property_id"`
	PropertyTitle string           `json:"property_title"`
	City          string           `json:"city"`
	Location      string           `json:"location"`
	BudgetRange   string           `json:"budget_range"`
	PropertyType  string           `json:"property_type"`
	Purpose       string           `json:"purpose"`
	Priority      model.Priority   `json:"priority"`
	Tags          []string         `json:"tags"`
	Notes         string           `json:"notes"`
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lead := model.Lead{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		SourceType:    req.SourceType,
		SourceID:      req.SourceID,
		PropertyID:    req.PropertyID,
		PropertyTitle: req.PropertyTitle,
		City:          req.City,
		Location:      req.Location,
		BudgetRange:   req.BudgetRange,
		PropertyType:  req.PropertyType,
		Purpose:       req.Purpose,
		Priority:      req.Priority,
		Tags:          datatypes.JSONSlice[string](req.Tags),
		Notes:         req.Notes,
	}

	created, err := s.board.CreateLead(r.Context(), lead)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.FromContext(r.Context()).Info("Lead created", zap.String("lead_id", created.ID))
	utils.WriteJSONResponse(w, http.StatusCreated, created)
}

type assignLeadsRequest struct {
	LeadIDs []string `json:"lead_ids"`
	// AdminID nil unassigns the leads.
	AdminID *string `json:"admin_id"`
}

func (s *Server) handleAssignLeads(w http.ResponseWriter, r *http.Request) {
	var req assignLeadsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.LeadIDs) == 0 {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "lead_ids is required"})
		return
	}

	if err := s.board.Assign(r.Context(), req.LeadIDs, req.AdminID); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "assigned"})
}

type setStatusRequest struct {
	Status model.PipelineStatus `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.board.SetStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "updated"})
}

// dropRequest is the wire form of a drag gesture: a grouped unassigned card
// carries lead_ids, an individual assigned card carries lead_id. The target
// is either the unassigned column or a status column.
type dropRequest struct {
	Item struct {
		Type    string   `json:"type"` // "group" or "lead"
		LeadIDs []string `json:"lead_ids,omitempty"`
		LeadID  string   `json:"lead_id,omitempty"`
	} `json:"item"`
	Target struct {
		Unassign bool                 `json:"unassign,omitempty"`
		Status   model.PipelineStatus `json:"status,omitempty"`
	} `json:"target"`
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var item board.DragItem
	switch req.Item.Type {
	case "group":
		if len(req.Item.LeadIDs) == 0 {
			utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "lead_ids is required for a group drop"})
			return
		}
		item = board.GroupedUnassigned{LeadIDs: req.Item.LeadIDs}
	case "lead":
		if req.Item.LeadID == "" {
			utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "lead_id is required for a lead drop"})
			return
		}
		item = board.IndividualAssigned{LeadID: req.Item.LeadID}
	default:
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "item.type must be \"group\" or \"lead\""})
		return
	}

	target := board.DropTarget{Unassign: req.Target.Unassign, Status: req.Target.Status}
	if err := s.board.HandleDrop(r.Context(), item, target); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "dropped"})
}

type addNoteRequest struct {
	Note string `json:"note"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req addNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Note == "" {
		utils.WriteJSONResponse(w, http.StatusBadRequest, errorResponse{Error: "note is required"})
		return
	}

	if err := s.board.AddNote(r.Context(), id, req.Note); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	notes, err := s.noteRepo.FindByLeadID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, notes)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.adminRepo.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, admins)
}

// handleListAdminAccounts returns every admin account, active or not, through
// the get_admin_accounts server-side procedure. Superadmin dashboard surface.
func (s *Server) handleListAdminAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.adminRepo.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, accounts)
}
