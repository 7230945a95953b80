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
	"github.com/jmoiron/sqlx"

	"medtrack/m/domain"
	"medtrack/m/internal/stock"
)

const dosageSelect = `SELECT d.id, d.medication_id, d.patient_id, d.dosage_amount, d.dosage_time,
        d.administered_by, d.notes,
        COALESCE(m.name, '') AS medication_name,
        COALESCE(p.first_name || ' ' || p.last_name, '') AS patient_name
        FROM dosages d
        LEFT JOIN medications m ON m.id = d.medication_id
        LEFT JOIN patients p ON p.id = d.patient_id`

func (h *Handler) listDosages(w http.ResponseWriter, r *http.Request) {
	dosages := []domain.Dosage{}
	if err := h.db.Select(&dosages, dosageSelect+` ORDER BY d.id`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list dosages")
		return
	}
	for i := range dosages {
		dosages[i].FormatTimes()
	}
	respondJSON(w, http.StatusOK, dosages)
}

// getDosage serializes one dosage through q, which is either the DB or an
// open transaction so mutations can respond with the row they just staged.
func getDosage(q sqlx.Queryer, id int64) (domain.Dosage, error) {
	var dosage domain.Dosage
	err := sqlx.Get(q, &dosage, dosageSelect+` WHERE d.id = ?`, id)
	if err != nil {
		return domain.Dosage{}, err
	}
	dosage.FormatTimes()
	return dosage, nil
}

type dosageRequest struct {
	MedicationID   *int64   `json:"medication_id"`
	PatientID      *int64   `json:"patient_id"`
	DosageAmount   *float64 `json:"dosage_amount"`
	DosageTime     *string  `json:"dosage_time"`
	AdministeredBy *string  `json:"administered_by"`
	Notes          *string  `json:"notes"`
}

func (h *Handler) createDosage(w http.ResponseWriter, r *http.Request) {
	var req dosageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicationID == nil || req.PatientID == nil || req.DosageAmount == nil || req.AdministeredBy == nil {
		respondError(w, http.StatusBadRequest, "medication_id, patient_id, dosage_amount and administered_by are required")
		return
	}
	if *req.DosageAmount <= 0 {
		respondError(w, http.StatusBadRequest, "dosage_amount must be a positive number")
		return
	}
	administeredBy := strings.TrimSpace(*req.AdministeredBy)
	if administeredBy == "" || utf8.RuneCountInString(administeredBy) > 100 {
		respondError(w, http.StatusBadRequest, "administered_by must be 1-100 characters")
		return
	}

	// Defaults to the moment of recording when the caller omits the stamp.
	dosageTime := time.Now()
	if req.DosageTime != nil {
		parsed, err := domain.ParseDosageTime(*req.DosageTime)
		if err != nil {
			respondError(w, http.StatusBadRequest, "dosage_time must be in YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD HH:MM:SS format")
			return
		}
		dosageTime = parsed
	}
	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record dosage")
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO dosages (medication_id, patient_id, dosage_amount, dosage_time, administered_by, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		*req.MedicationID, *req.PatientID, *req.DosageAmount, dosageTime.Format(domain.TimeLayoutPlain), administeredBy, notes)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record dosage")
		return
	}
	id, err := res.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record dosage")
		return
	}

	// A missing medication leaves stock untouched; the dosage is still
	// recorded.
	if _, err := stock.Adjust(tx, *req.MedicationID, -*req.DosageAmount); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to adjust medication stock")
		return
	}

	// Serialize before commit: a fetch failure here still rolls the whole
	// request back instead of reporting 500 for a dosage that was recorded.
	dosage, err := getDosage(tx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record dosage")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to record dosage")
		return
	}
	respondJSON(w, http.StatusCreated, dosage)
}

func (h *Handler) updateDosage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dosage id")
		return
	}

	var existing domain.Dosage
	err = h.db.Get(&existing, `SELECT id, medication_id, patient_id, dosage_amount, dosage_time, administered_by, notes FROM dosages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "dosage not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch dosage")
		return
	}

	// Reconciliation needs the pre-update pair.
	oldMedicationID := existing.MedicationID
	oldAmount := existing.DosageAmount

	var req dosageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MedicationID != nil {
		existing.MedicationID = *req.MedicationID
	}
	if req.PatientID != nil {
		existing.PatientID = *req.PatientID
	}
	if req.DosageAmount != nil {
		if *req.DosageAmount <= 0 {
			respondError(w, http.StatusBadRequest, "dosage_amount must be a positive number")
			return
		}
		existing.DosageAmount = *req.DosageAmount
	}
	if req.DosageTime != nil {
		parsed, err := domain.ParseDosageTime(*req.DosageTime)
		if err != nil {
			respondError(w, http.StatusBadRequest, "dosage_time must be in YYYY-MM-DDTHH:MM:SS or YYYY-MM-DD HH:MM:SS format")
			return
		}
		existing.DosageTime = parsed.Format(domain.TimeLayoutPlain)
	}
	if req.AdministeredBy != nil {
		administeredBy := strings.TrimSpace(*req.AdministeredBy)
		if administeredBy == "" || utf8.RuneCountInString(administeredBy) > 100 {
			respondError(w, http.StatusBadRequest, "administered_by must be 1-100 characters")
			return
		}
		existing.AdministeredBy = administeredBy
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update dosage")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`UPDATE dosages SET medication_id = ?, patient_id = ?, dosage_amount = ?, dosage_time = ?, administered_by = ?, notes = ? WHERE id = ?`,
		existing.MedicationID, existing.PatientID, existing.DosageAmount, existing.DosageTime, existing.AdministeredBy, existing.Notes, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update dosage")
		return
	}

	// Restore the original medication, then deduct from the new one (which
	// may be the same row). Either side is skipped when its medication is
	// gone.
	if existing.MedicationID != oldMedicationID || existing.DosageAmount != oldAmount {
		if _, err := stock.Adjust(tx, oldMedicationID, oldAmount); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to adjust medication stock")
			return
		}
		if _, err := stock.Adjust(tx, existing.MedicationID, -existing.DosageAmount); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to adjust medication stock")
			return
		}
	}

	dosage, err := getDosage(tx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update dosage")
		return
	}

	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update dosage")
		return
	}
	respondJSON(w, http.StatusOK, dosage)
}

func (h *Handler) deleteDosage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid dosage id")
		return
	}

	var existing domain.Dosage
	err = h.db.Get(&existing, `SELECT id, medication_id, patient_id, dosage_amount, dosage_time, administered_by, notes FROM dosages WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "dosage not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch dosage")
		return
	}

	tx, err := h.db.Beginx()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete dosage")
		return
	}
	defer tx.Rollback()

	if _, err := stock.Adjust(tx, existing.MedicationID, existing.DosageAmount); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to adjust medication stock")
		return
	}
	if _, err := tx.Exec(`DELETE FROM dosages WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete dosage")
		return
	}
	if err := tx.Commit(); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete dosage")
		return
	}
	respondMessage(w, "Dosage deleted successfully")
}
