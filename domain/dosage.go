package domain

import (
	"strings"
	"time"
)

// Timestamp layouts used across the API. Dosage times are stored in the
// plain form and emitted in the ISO form.
const (
	DateLayout      = "2006-01-02"
	TimeLayoutISO   = "2006-01-02T15:04:05"
	TimeLayoutPlain = "2006-01-02 15:04:05"

	timeLayoutDisplay = "2006-01-02 15:04"
)

// Dosage records a single administration of a medication to a patient.
// MedicationName and PatientName are joined in at query time; a dosage can
// outlive its medication, in which case MedicationName is empty.
type Dosage struct {
	ID             int64   `db:"id" json:"id"`
	MedicationID   int64   `db:"medication_id" json:"medication_id"`
	PatientID      int64   `db:"patient_id" json:"patient_id"`
	DosageAmount   float64 `db:"dosage_amount" json:"dosage_amount"`
	DosageTime     string  `db:"dosage_time" json:"dosage_time"`
	AdministeredBy string  `db:"administered_by" json:"administered_by"`
	Notes          string  `db:"notes" json:"notes"`
	MedicationName string  `db:"medication_name" json:"medication_name"`
	PatientName    string  `db:"patient_name" json:"patient_name"`
	FormattedTime  string  `db:"-" json:"formatted_time"`
}

// ParseDosageTime accepts either a combined ISO-8601 stamp or the plain
// "YYYY-MM-DD HH:MM:SS" form, told apart by the T separator.
func ParseDosageTime(value string) (time.Time, error) {
	if strings.ContainsRune(value, 'T') {
		return time.Parse(TimeLayoutISO, value)
	}
	return time.Parse(TimeLayoutPlain, value)
}

// FormatTimes rewrites the stored timestamp into the API's ISO form and
// fills the display variant. A stored value that does not parse is passed
// through untouched.
func (d *Dosage) FormatTimes() {
	t, err := time.Parse(TimeLayoutPlain, d.DosageTime)
	if err != nil {
		return
	}
	d.DosageTime = t.Format(TimeLayoutISO)
	d.FormattedTime = t.Format(timeLayoutDisplay)
}
