package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"medtrack/m/internal/api"
	"medtrack/m/internal/migrations"
)

func newTestServer(t *testing.T) (*httptest.Server, *sqlx.DB) {
	t.Helper()
	db := sqlx.MustConnect("sqlite", ":memory:")
	db.SetMaxOpenConns(1)
	migrations.Run(db)

	ts := httptest.NewServer(api.New(db, zerolog.Nop()).Router())
	t.Cleanup(func() {
		ts.Close()
		db.Close()
	})
	return ts, db
}

func doReq(t *testing.T, baseURL, method, path string, payload any) (int, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, b
}

func decodeObject(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		t.Fatalf("decode object: %v body=%s", err, body)
	}
	return obj
}

func decodeList(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatalf("decode list: %v body=%s", err, body)
	}
	return list
}

func createMedication(t *testing.T, baseURL, name string, currentStock float64, threshold int64) int64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/medications", map[string]any{
		"name":          name,
		"current_stock": currentStock,
		"threshold":     threshold,
	})
	if st != http.StatusCreated {
		t.Fatalf("create medication: status %d body=%s", st, body)
	}
	return int64(decodeObject(t, body)["id"].(float64))
}

func createPatient(t *testing.T, baseURL, firstName, lastName, mrn string) int64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/patients", map[string]any{
		"first_name":            firstName,
		"last_name":             lastName,
		"date_of_birth":         "1990-05-10",
		"medical_record_number": mrn,
	})
	if st != http.StatusCreated {
		t.Fatalf("create patient: status %d body=%s", st, body)
	}
	return int64(decodeObject(t, body)["id"].(float64))
}

func createDosage(t *testing.T, baseURL string, medicationID, patientID int64, amount float64) int64 {
	t.Helper()
	st, body := doReq(t, baseURL, "POST", "/dosages", map[string]any{
		"medication_id":   medicationID,
		"patient_id":      patientID,
		"dosage_amount":   amount,
		"administered_by": "Nurse Kelly",
	})
	if st != http.StatusCreated {
		t.Fatalf("create dosage: status %d body=%s", st, body)
	}
	return int64(decodeObject(t, body)["id"].(float64))
}

func medicationStock(t *testing.T, db *sqlx.DB, id int64) float64 {
	t.Helper()
	var s float64
	if err := db.Get(&s, `SELECT current_stock FROM medications WHERE id = ?`, id); err != nil {
		t.Fatalf("read stock for medication %d: %v", id, err)
	}
	return s
}

func entityPath(resource string, id int64) string {
	return fmt.Sprintf("/%s/%d", resource, id)
}
