package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"medtrack/m/domain"
)

const patientColumns = `id, first_name, last_name, date_of_birth, medical_record_number,
        first_name || ' ' || last_name AS full_name`

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	patients := []domain.Patient{}
	if err := h.db.Select(&patients, `SELECT `+patientColumns+` FROM patients ORDER BY id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list patients")
		return
	}
	respondJSON(w, http.StatusOK, patients)
}

type patientRequest struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	DateOfBirth         *string `json:"date_of_birth"`
	MedicalRecordNumber *string `json:"medical_record_number"`
}

func validPatientField(value string, max int) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && utf8.RuneCountInString(trimmed) <= max
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FirstName == nil || req.LastName == nil || req.DateOfBirth == nil || req.MedicalRecordNumber == nil {
		respondError(w, http.StatusBadRequest, "first_name, last_name, date_of_birth and medical_record_number are required")
		return
	}
	if !validPatientField(*req.FirstName, 50) || !validPatientField(*req.LastName, 50) {
		respondError(w, http.StatusBadRequest, "first_name and last_name must be 1-50 characters")
		return
	}
	if !validPatientField(*req.MedicalRecordNumber, 50) {
		respondError(w, http.StatusBadRequest, "medical_record_number must be 1-50 characters")
		return
	}
	dob, err := time.Parse(domain.DateLayout, *req.DateOfBirth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date_of_birth must be in YYYY-MM-DD format")
		return
	}

	res, err := h.db.Exec(`INSERT INTO patients (first_name, last_name, date_of_birth, medical_record_number) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(*req.FirstName), strings.TrimSpace(*req.LastName), dob.Format(domain.DateLayout), strings.TrimSpace(*req.MedicalRecordNumber))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create patient")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create patient")
		return
	}

	var patient domain.Patient
	if err := h.db.Get(&patient, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}
	respondJSON(w, http.StatusCreated, patient)
}

func (h *Handler) updatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	var patient domain.Patient
	err = h.db.Get(&patient, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}

	var req patientRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FirstName != nil {
		if !validPatientField(*req.FirstName, 50) {
			respondError(w, http.StatusBadRequest, "first_name must be 1-50 characters")
			return
		}
		patient.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if !validPatientField(*req.LastName, 50) {
			respondError(w, http.StatusBadRequest, "last_name must be 1-50 characters")
			return
		}
		patient.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(domain.DateLayout, *req.DateOfBirth)
		if err != nil {
			respondError(w, http.StatusBadRequest, "date_of_birth must be in YYYY-MM-DD format")
			return
		}
		patient.DateOfBirth = dob.Format(domain.DateLayout)
	}
	if req.MedicalRecordNumber != nil {
		if !validPatientField(*req.MedicalRecordNumber, 50) {
			respondError(w, http.StatusBadRequest, "medical_record_number must be 1-50 characters")
			return
		}
		patient.MedicalRecordNumber = strings.TrimSpace(*req.MedicalRecordNumber)
	}

	_, err = h.db.Exec(`UPDATE patients SET first_name = ?, last_name = ?, date_of_birth = ?, medical_record_number = ? WHERE id = ?`,
		patient.FirstName, patient.LastName, patient.DateOfBirth, patient.MedicalRecordNumber, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update patient")
		return
	}

	if err := h.db.Get(&patient, `SELECT `+patientColumns+` FROM patients WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}
	respondJSON(w, http.StatusOK, patient)
}

// deletePatient cascades to dependent dosages without restoring any
// medication stock. A cascaded dosage can reference a still-existing
// medication; its stock is intentionally left as-is.
func (h *Handler) deletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid patient id")
		return
	}

	var exists int
	err = h.db.Get(&exists, `SELECT COUNT(*) FROM patients WHERE id = ?`, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch patient")
		return
	}
	if exists == 0 {
		respondError(w, http.StatusNotFound, "patient not found")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM dosages WHERE patient_id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	if _, err := tx.Exec(`DELETE FROM patients WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete patient")
		return
	}
	respondMessage(w, "Patient deleted successfully")
}
