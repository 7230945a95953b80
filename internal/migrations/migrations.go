package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema for the medication tracker.
//
// The foreign keys are declarative only: the foreign_keys pragma is left
// off, dependent dosages are removed in application code when a medication
// or patient is deleted, and a dosage row may reference a medication that no
// longer exists.
//
// dosage_time is TEXT, not DATETIME: the driver converts DATETIME-declared
// columns to time.Time on scan, which would come back RFC3339 with a zone
// suffix instead of the stored plain form.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            description TEXT,
            current_stock INTEGER NOT NULL,
            threshold INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS patients (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            date_of_birth TEXT NOT NULL,
            medical_record_number TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS dosages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medication_id INTEGER NOT NULL,
            patient_id INTEGER NOT NULL,
            dosage_amount REAL NOT NULL,
            dosage_time TEXT NOT NULL,
            administered_by TEXT NOT NULL,
            notes TEXT,
            FOREIGN KEY(medication_id) REFERENCES medications(id),
            FOREIGN KEY(patient_id) REFERENCES patients(id)
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
