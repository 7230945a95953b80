package api_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestMedicationCreateAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
		"name":          "Amoxicillin",
		"description":   "Antibiotic",
		"current_stock": 50,
		"threshold":     10,
	})
	if st != http.StatusCreated {
		t.Fatalf("create: status %d body=%s", st, body)
	}
	created := decodeObject(t, body)
	if created["name"] != "Amoxicillin" || created["description"] != "Antibiotic" {
		t.Fatalf("unexpected created medication: %v", created)
	}
	if created["low_stock"] != false {
		t.Fatalf("expected low_stock=false, got %v", created["low_stock"])
	}

	id := int64(created["id"].(float64))
	st, body = doReq(t, ts.URL, "GET", entityPath("medications", id), nil)
	if st != http.StatusOK {
		t.Fatalf("get: status %d body=%s", st, body)
	}
	got := decodeObject(t, body)
	if got["name"] != "Amoxicillin" || got["current_stock"] != float64(50) {
		t.Fatalf("unexpected medication: %v", got)
	}

	st, body = doReq(t, ts.URL, "GET", "/medications", nil)
	if st != http.StatusOK {
		t.Fatalf("list: status %d", st)
	}
	if list := decodeList(t, body); len(list) != 1 {
		t.Fatalf("expected 1 medication, got %d", len(list))
	}
}

func TestMedicationLowStockAndAlerts(t *testing.T) {
	ts, _ := newTestServer(t)

	lowID := createMedication(t, ts.URL, "Insulin", 5, 10)
	createMedication(t, ts.URL, "Paracetamol", 50, 10)

	st, body := doReq(t, ts.URL, "GET", entityPath("medications", lowID), nil)
	if st != http.StatusOK {
		t.Fatalf("get: status %d", st)
	}
	if decodeObject(t, body)["low_stock"] != true {
		t.Fatal("expected low_stock=true for stock below threshold")
	}

	st, body = doReq(t, ts.URL, "GET", "/alerts", nil)
	if st != http.StatusOK {
		t.Fatalf("alerts: status %d", st)
	}
	alerts := decodeList(t, body)
	if len(alerts) != 1 || int64(alerts[0]["id"].(float64)) != lowID {
		t.Fatalf("expected only the low medication in alerts, got %v", alerts)
	}

	// Alerts are computed fresh: restocking removes the entry.
	st, body = doReq(t, ts.URL, "PUT", entityPath("medications", lowID), map[string]any{"current_stock": 25})
	if st != http.StatusOK {
		t.Fatalf("restock: status %d body=%s", st, body)
	}
	st, body = doReq(t, ts.URL, "GET", "/alerts", nil)
	if st != http.StatusOK {
		t.Fatalf("alerts: status %d", st)
	}
	if alerts := decodeList(t, body); len(alerts) != 0 {
		t.Fatalf("expected no alerts after restock, got %v", alerts)
	}
}

func TestMedicationValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing name", map[string]any{"current_stock": 5, "threshold": 2}},
		{"blank name", map[string]any{"name": "  ", "current_stock": 5, "threshold": 2}},
		{"name too long", map[string]any{"name": strings.Repeat("x", 101), "current_stock": 5, "threshold": 2}},
		{"missing threshold", map[string]any{"name": "Aspirin", "current_stock": 5}},
		{"non-numeric stock", map[string]any{"name": "Aspirin", "current_stock": "lots", "threshold": 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, "POST", "/medications", tc.payload)
			if st != http.StatusBadRequest {
				t.Fatalf("status %d body=%s, want 400", st, body)
			}
			if decodeObject(t, body)["error"] == "" {
				t.Fatal("expected an error field")
			}
		})
	}
}

// Limits are per character, so a multibyte name at the limit passes.
func TestMedicationMultibyteNameLimit(t *testing.T) {
	ts, _ := newTestServer(t)

	st, body := doReq(t, ts.URL, "POST", "/medications", map[string]any{
		"name":          strings.Repeat("é", 100),
		"current_stock": 5,
		"threshold":     2,
	})
	if st != http.StatusCreated {
		t.Fatalf("100-rune name: status %d body=%s", st, body)
	}

	st, body = doReq(t, ts.URL, "POST", "/medications", map[string]any{
		"name":          strings.Repeat("é", 101),
		"current_stock": 5,
		"threshold":     2,
	})
	if st != http.StatusBadRequest {
		t.Fatalf("101-rune name: status %d body=%s, want 400", st, body)
	}
}

func TestMedicationNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	if st, _ := doReq(t, ts.URL, "GET", "/medications/999", nil); st != http.StatusNotFound {
		t.Fatalf("get: status %d, want 404", st)
	}
	if st, _ := doReq(t, ts.URL, "PUT", "/medications/999", map[string]any{"name": "X"}); st != http.StatusNotFound {
		t.Fatalf("put: status %d, want 404", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/medications/999", nil); st != http.StatusNotFound {
		t.Fatalf("delete: status %d, want 404", st)
	}
}

func TestMedicationPartialUpdate(t *testing.T) {
	ts, _ := newTestServer(t)
	id := createMedication(t, ts.URL, "Metformin", 30, 5)

	st, body := doReq(t, ts.URL, "PUT", entityPath("medications", id), map[string]any{"threshold": 40})
	if st != http.StatusOK {
		t.Fatalf("update: status %d body=%s", st, body)
	}
	got := decodeObject(t, body)
	if got["name"] != "Metformin" || got["threshold"] != float64(40) {
		t.Fatalf("unexpected medication after patch: %v", got)
	}
	if got["low_stock"] != true {
		t.Fatal("expected low_stock=true after raising threshold above stock")
	}
}

func TestMedicationDeleteCascadesToDosages(t *testing.T) {
	ts, _ := newTestServer(t)
	medID := createMedication(t, ts.URL, "Warfarin", 100, 10)
	patID := createPatient(t, ts.URL, "Jane", "Doe", "MRN-100")
	createDosage(t, ts.URL, medID, patID, 5)

	st, body := doReq(t, ts.URL, "DELETE", entityPath("medications", medID), nil)
	if st != http.StatusOK {
		t.Fatalf("delete: status %d body=%s", st, body)
	}
	if decodeObject(t, body)["message"] != "Medication deleted successfully" {
		t.Fatalf("unexpected delete body: %s", body)
	}

	st, body = doReq(t, ts.URL, "GET", "/dosages", nil)
	if st != http.StatusOK {
		t.Fatalf("list dosages: status %d", st)
	}
	if dosages := decodeList(t, body); len(dosages) != 0 {
		t.Fatalf("expected cascade to remove dosages, got %v", dosages)
	}
	if st, _ := doReq(t, ts.URL, "GET", entityPath("medications", medID), nil); st != http.StatusNotFound {
		t.Fatalf("medication still present after delete: status %d", st)
	}
}
