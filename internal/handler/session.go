package handler

import (
	"log/slog"
	"net/http"

	"elenchus/internal/httputil"
	"elenchus/internal/service/study"
)

// SessionHandler exposes the participant-facing flow: begin (or resume) a
// session, exchange messages, submit the questionnaire.
type SessionHandler struct {
	study  *study.Service
	logger *slog.Logger
}

func NewSessionHandler(studyService *study.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{study: studyService, logger: logger}
}

type beginRequest struct {
	ParticipantID string `json:"participant_id"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

// Begin starts or resumes a session.
// POST /api/sessions
func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if r.ContentLength != 0 {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := h.study.Begin(r.Context(), req.ParticipantID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, session)
}

// Get returns the reconstructed session.
// GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.study.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// Message handles one conversation exchange.
// POST /api/sessions/{id}/messages
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.study.Converse(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, messageResponse{Reply: reply})
}

// Questionnaire submits the post-study questionnaire and completes the study.
// POST /api/sessions/{id}/questionnaire
func (h *SessionHandler) Questionnaire(w http.ResponseWriter, r *http.Request) {
	var submission study.QuestionnaireSubmission
	if err := httputil.ParseJSON(w, r, &submission); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.study.Complete(r.Context(), r.PathValue("id"), &submission)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, response)
}
