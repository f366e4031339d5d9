package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"highway/internal/models"
	"highway/internal/services"
	"highway/internal/utils"
)

type NoteHandler struct {
	service services.NoteService
}

func NewNoteHandler(service services.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func (h *NoteHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	notes, err := h.service.GetNotes(r.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Msg("Error getting notes from service")
		utils.SendJSONError(w, "Server error while fetching notes", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(notes),
		"notes":   notes,
	})
}

func (h *NoteHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	var reqBody models.AddNoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	note, err := h.service.AddNote(r.Context(), user.ID, reqBody)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Msg("Error adding note via service")
		utils.SendJSONError(w, "Server error while creating note", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Note created successfully",
		"note":    note,
	})
}

func (h *NoteHandler) GetNoteByID(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	noteID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	note, err := h.service.GetNoteByID(r.Context(), user.ID, noteID)
	if err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.SendJSONError(w, "Note not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("note_id", noteID.Hex()).Msg("Error getting note by ID from service")
		utils.SendJSONError(w, "Server error while fetching note", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"note":    note,
	})
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	noteID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var updatePayload models.UpdateNoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&updatePayload); err != nil {
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	note, err := h.service.UpdateNote(r.Context(), user.ID, noteID, updatePayload)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoteNotFound):
			utils.SendJSONError(w, "Note not found", http.StatusNotFound)
		case errors.Is(err, services.ErrValidation):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Str("note_id", noteID.Hex()).Msg("Error updating note via service")
			utils.SendJSONError(w, "Server error while updating note", http.StatusInternalServerError)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Note updated successfully",
		"note":    note,
	})
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user, err := utils.GetUserFromContext(w, r)
	if err != nil {
		return
	}

	noteID, err := utils.GetObjectIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteNote(r.Context(), user.ID, noteID); err != nil {
		if errors.Is(err, services.ErrNoteNotFound) {
			utils.SendJSONError(w, "Note not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("note_id", noteID.Hex()).Msg("Error deleting note via service")
		utils.SendJSONError(w, "Server error while deleting note", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Note deleted successfully",
	})
}
