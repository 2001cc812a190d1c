package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/storeforge/translation-orchestrator/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{BaseURL: server.URL, APIKey: "test-key", Timeout: 5 * time.Second})
}

func TestBulkTranslateCompleted(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"total":      10,
				"translated": 8,
				"skipped":    2,
				"errors":     []map[string]string{{"item": "cat-7", "reason": "empty name"}},
			},
			"creditsDeducted": 1.0,
		})
	})

	outcome, err := client.BulkTranslate(context.Background(), domain.EntityCategory, "store-1", "en", "nl")
	if err != nil {
		t.Fatalf("BulkTranslate() unexpected error: %v", err)
	}

	if gotPath != "/categories/bulk-translate" {
		t.Errorf("path = %q, want /categories/bulk-translate", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if gotBody["store_id"] != "store-1" || gotBody["fromLang"] != "en" || gotBody["toLang"] != "nl" {
		t.Errorf("request body = %v", gotBody)
	}

	if outcome.Status != domain.OutcomeCompleted {
		t.Errorf("Status = %q, want completed", outcome.Status)
	}
	if outcome.Total != 10 || outcome.Translated != 8 || outcome.Skipped != 2 {
		t.Errorf("counts = %+v, want 10/8/2", outcome)
	}
	if outcome.CreditsDeducted != 1.0 {
		t.Errorf("CreditsDeducted = %v, want 1.0", outcome.CreditsDeducted)
	}
	if len(outcome.Errors) != 1 || outcome.Errors[0].Item != "cat-7" {
		t.Errorf("Errors = %+v, want one entry for cat-7", outcome.Errors)
	}
}

func TestBulkTranslateBackground(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"backgroundProcessing": true,
				"estimatedItems":       400,
				"estimatedMinutes":     20,
				"estimatedCost":        40.0,
			},
		})
	})

	outcome, err := client.BulkTranslate(context.Background(), domain.EntityUILabels, "store-1", "en", "de")
	if err != nil {
		t.Fatalf("BulkTranslate() unexpected error: %v", err)
	}

	if outcome.Status != domain.OutcomeAccepted {
		t.Errorf("Status = %q, want accepted", outcome.Status)
	}
	if outcome.EstimatedItems != 400 || outcome.EstimatedMinutes != 20 {
		t.Errorf("estimates = %d/%d, want 400/20", outcome.EstimatedItems, outcome.EstimatedMinutes)
	}
	// No confirmed deduction: the estimated cost is carried instead.
	if outcome.CreditsDeducted != 40.0 {
		t.Errorf("CreditsDeducted = %v, want estimated 40.0", outcome.CreditsDeducted)
	}
}

func TestBulkTranslateServerFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "store not found",
		})
	})

	_, err := client.BulkTranslate(context.Background(), domain.EntityCategory, "store-x", "en", "nl")
	if err == nil {
		t.Fatalf("BulkTranslate() should have returned error")
	}
	if !strings.Contains(err.Error(), "store not found") {
		t.Errorf("error = %v, want server message included", err)
	}
}

func TestBulkTranslateHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := client.BulkTranslate(context.Background(), domain.EntityCategory, "store-1", "en", "nl")
	if err == nil {
		t.Fatalf("BulkTranslate() should have returned error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code included", err)
	}
}

func TestBulkTranslateEntities(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"total": 5, "translated": 5},
		})
	})

	entityTypes := []domain.EntityType{domain.EntityProduct, domain.EntityCategory}
	_, err := client.BulkTranslateEntities(context.Background(), entityTypes, "store-1", "en", "fr")
	if err != nil {
		t.Fatalf("BulkTranslateEntities() unexpected error: %v", err)
	}

	if gotPath != "/translations/bulk-translate-entities" {
		t.Errorf("path = %q", gotPath)
	}
	types, _ := gotBody["entity_types"].([]interface{})
	if len(types) != 2 || types[0] != "product" || types[1] != "category" {
		t.Errorf("entity_types = %v, want [product category]", types)
	}
}

func TestEntityStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("store_id"); got != "store-1" {
			t.Errorf("store_id = %q, want store-1", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"stats": map[string]interface{}{
				"category": map[string]int{"total": 10, "translated": 4},
			},
		})
	})

	stats, err := client.EntityStats(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("EntityStats() unexpected error: %v", err)
	}
	if got := stats[domain.EntityCategory]; got.Total != 10 || got.Translated != 4 {
		t.Errorf("stats[category] = %+v, want total=10 translated=4", got)
	}
}

func TestServiceCreditCosts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("category") != "ai_services" || q.Get("active_only") != "true" {
			t.Errorf("query = %v, want category=ai_services active_only=true", q)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"services": []map[string]interface{}{
				{"service_key": "ai_translation_category", "cost_per_unit": 0.25},
			},
		})
	})

	services, err := client.ServiceCreditCosts(context.Background())
	if err != nil {
		t.Fatalf("ServiceCreditCosts() unexpected error: %v", err)
	}
	if len(services) != 1 || services[0].ServiceKey != "ai_translation_category" || services[0].CostPerUnit != 0.25 {
		t.Errorf("services = %+v", services)
	}
}

func TestCreditBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "balance": 42.5})
	})

	balance, err := client.CreditBalance(context.Background())
	if err != nil {
		t.Fatalf("CreditBalance() unexpected error: %v", err)
	}
	if balance != 42.5 {
		t.Errorf("balance = %v, want 42.5", balance)
	}
}
