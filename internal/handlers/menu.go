package handlers

import (
	"net/http"

	"sakura-backend/internal/models"
)

type menuCatalog interface {
	Items() []models.MenuItem
}

type MenuHandler struct {
	catalog menuCatalog
}

func NewMenuHandler(catalog menuCatalog) *MenuHandler {
	return &MenuHandler{catalog: catalog}
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.MenuResponse{Menu: h.catalog.Items()})
}
