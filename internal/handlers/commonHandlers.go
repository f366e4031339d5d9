package handlers

import (
	"net/http"

	"highway/internal/database"
	"highway/internal/utils"
)

type CommonHandler struct {
	db database.Service
}

func NewCommonHandler(db database.Service) *CommonHandler {
	return &CommonHandler{db: db}
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, h.db.Health())
}
