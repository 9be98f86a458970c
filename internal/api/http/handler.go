package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"notes-sync/internal/api/notesapi"
	"notes-sync/internal/logger"
	"notes-sync/internal/model"
	"notes-sync/internal/repository"
	svc "notes-sync/internal/service"
	"notes-sync/internal/service/notes"
)

const maxBodyBytes = 1 << 20

// Handler REST обработчики сервиса заметок
type Handler struct {
	noteService svc.NoteService
	logger      *slog.Logger
}

// NewHandler создает новый экземпляр HTTP хэндлера
func NewHandler(noteService svc.NoteService, log *slog.Logger) *Handler {
	return &Handler{
		noteService: noteService,
		logger:      logger.OrDefault(log),
	}
}

// Register регистрирует маршруты на mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /notes", h.ListNotes)
	mux.HandleFunc("POST /notes", h.CreateNote)
	mux.HandleFunc("GET /notes/{id}", h.GetNote)
	mux.HandleFunc("PUT /notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /notes/{id}", h.DeleteNote)
}

// Health отвечает 200, пока процесс жив
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListNotes возвращает все заметки
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.noteService.List(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateNote сохраняет заметку клиента вместе с ее ID
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var note model.Note
	if !h.decode(w, r, &note) {
		return
	}

	created, err := h.noteService.Create(r.Context(), note)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetNote возвращает заметку по ID
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.noteService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote применяет частичное тело к заметке
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req notesapi.UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	note, err := h.noteService.Update(r.Context(), r.PathValue("id"), req.NotePatch, req.UpdatedAt)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote удаляет заметку; отсутствие заметки не ошибка
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.noteService.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// handleError переводит ошибки сервиса в HTTP статусы
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, notes.ErrInvalidNote):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
