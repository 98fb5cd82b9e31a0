package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"sakura-backend/internal/models"
)

const templateErrorPage = "<h1>Ошибка: шаблон не найден</h1>"

// PageHandler renders the landing page template from disk on each request,
// so the page can be edited without a restart.
type PageHandler struct {
	templatePath string
	catalog      menuCatalog
	logger       *slog.Logger
}

type pageData struct {
	Restaurant string
	Menu       []models.MenuItem
}

func NewPageHandler(templatePath string, catalog menuCatalog, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{templatePath: templatePath, catalog: catalog, logger: logger}
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	tmpl, err := template.ParseFiles(h.templatePath)
	if err != nil {
		h.renderError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pageData{Restaurant: "Sakura Sushi", Menu: h.catalog.Items()}); err != nil {
		h.renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *PageHandler) renderError(w http.ResponseWriter, err error) {
	h.logger.Error("template error", "path", h.templatePath, "error", err)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(templateErrorPage))
}
