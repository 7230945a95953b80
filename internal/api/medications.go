package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"medtrack/m/domain"
)

// low_stock is computed in the select so it is fresh on every read.
const medicationColumns = `id, name, description, current_stock, threshold,
        current_stock < threshold AS low_stock`

func (h *Handler) listMedications(w http.ResponseWriter, r *http.Request) {
	medications := []domain.Medication{}
	if err := h.db.Select(&medications, `SELECT `+medicationColumns+` FROM medications ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list medications")
		return
	}
	respondJSON(w, http.StatusOK, medications)
}

func (h *Handler) getMedication(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}
	var medication domain.Medication
	err = h.db.Get(&medication, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "medication not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch medication")
		return
	}
	respondJSON(w, http.StatusOK, medication)
}

type medicationRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	CurrentStock *float64 `json:"current_stock"`
	Threshold    *int64   `json:"threshold"`
}

// Limits count characters, not bytes, matching the original column widths.
func validMedicationName(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= 100
}

func (h *Handler) createMedication(w http.ResponseWriter, r *http.Request) {
	var req medicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == nil || req.CurrentStock == nil || req.Threshold == nil {
		respondError(w, http.StatusBadRequest, "name, current_stock and threshold are required")
		return
	}
	if !validMedicationName(*req.Name) {
		respondError(w, http.StatusBadRequest, "name must be 1-100 characters")
		return
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	res, err := h.db.Exec(`INSERT INTO medications (name, description, current_stock, threshold) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(*req.Name), description, *req.CurrentStock, *req.Threshold)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medication")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create medication")
		return
	}

	var medication domain.Medication
	if err := h.db.Get(&medication, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch medication")
		return
	}
	respondJSON(w, http.StatusCreated, medication)
}

func (h *Handler) updateMedication(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}

	var medication domain.Medication
	err = h.db.Get(&medication, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "medication not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch medication")
		return
	}

	var req medicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		if !validMedicationName(*req.Name) {
			respondError(w, http.StatusBadRequest, "name must be 1-100 characters")
			return
		}
		medication.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		medication.Description = *req.Description
	}
	if req.CurrentStock != nil {
		medication.CurrentStock = *req.CurrentStock
	}
	if req.Threshold != nil {
		medication.Threshold = *req.Threshold
	}

	_, err = h.db.Exec(`UPDATE medications SET name = ?, description = ?, current_stock = ?, threshold = ? WHERE id = ?`,
		medication.Name, medication.Description, medication.CurrentStock, medication.Threshold, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update medication")
		return
	}

	if err := h.db.Get(&medication, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch medication")
		return
	}
	respondJSON(w, http.StatusOK, medication)
}

// deleteMedication cascades to dependent dosages. The cascade does not run
// stock reconciliation: the stock being reconciled is on the row being
// deleted.
func (h *Handler) deleteMedication(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid medication id")
		return
	}

	var exists int
	err = h.db.Get(&exists, `SELECT COUNT(*) FROM medications WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch medication")
		return
	}
	if exists == 0 {
		respondError(w, http.StatusNotFound, "medication not found")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dosages WHERE medication_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	if _, err := tx.Exec(`DELETE FROM medications WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete medication")
		return
	}
	respondMessage(w, "Medication deleted successfully")
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	medications := []domain.Medication{}
	if err := h.db.Select(&medications, `SELECT `+medicationColumns+` FROM medications WHERE current_stock < threshold ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch alerts")
		return
	}
	respondJSON(w, http.StatusOK, medications)
}
