package handle

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"exam-coach/api/internal/store"
)

// Админские CRUD-ручки банка вопросов.

func (h *Handle) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var q store.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if err := h.questions.Create(r.Context(), &q); err != nil {
		log.Printf("questions: create: %v", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handle) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q, err := h.questions.Get(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	if err != nil {
		log.Printf("questions: get %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handle) ListQuestions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	out, err := h.questions.List(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		log.Printf("questions: list: %v", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if out == nil {
		out = []store.Question{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var q store.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	q.ID = mux.Vars(r)["id"]
	if err := h.questions.Update(r.Context(), q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		log.Printf("questions: update %s: %v", q.ID, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handle) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.questions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		log.Printf("questions: delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
