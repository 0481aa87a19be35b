//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

type couponRequest struct {
	Type    string         `json:"type"`
	Details map[string]any `json:"details"`
	Active  *bool          `json:"active,omitempty"`
}

func TestCouponLifecycle(t *testing.T) {
	// Create.
	resp := doPost(t, "/api/coupons", couponRequest{
		Type: "cart-wise",
		Details: map[string]any{
			"threshold":     "500",
			"discount":      "50",
			"discount_type": "fixed",
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[couponResponse](t, resp)
	resp.Body.Close()

	if created.ID == 0 {
		t.Fatal("create: expected non-zero id")
	}
	if created.Type != "cart-wise" {
		t.Fatalf("create: expected type cart-wise, got %q", created.Type)
	}
	if !created.Active {
		t.Fatal("create: active should default to true")
	}

	path := fmt.Sprintf("/api/coupons/%d", created.ID)

	// Get.
	resp = doGet(t, path)
	got := decodeJSON[couponResponse](t, resp)
	resp.Body.Close()
	if got.ID != created.ID {
		t.Fatalf("get: expected id %d, got %d", created.ID, got.ID)
	}

	var details struct {
		Threshold    json.Number `json:"threshold"`
		DiscountType string      `json:"discount_type"`
	}
	if err := json.Unmarshal(got.Details, &details); err != nil {
		t.Fatalf("get: parse details: %v", err)
	}
	if details.DiscountType != "fixed" {
		t.Fatalf("get: expected fixed discount type, got %q", details.DiscountType)
	}

	// Update.
	inactive := false
	resp = doJSON(t, http.MethodPut, path, couponRequest{
		Type: "cart-wise",
		Details: map[string]any{
			"threshold":     "600",
			"discount":      "60",
			"discount_type": "fixed",
		},
		Active: &inactive,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decodeJSON[couponResponse](t, resp)
	resp.Body.Close()
	if updated.Active {
		t.Fatal("update: expected active=false")
	}

	// Deactivated coupons stay visible in the listing.
	resp = doGet(t, "/api/coupons?limit=1000")
	listed := decodeJSON[[]couponResponse](t, resp)
	resp.Body.Close()
	found := false
	for _, c := range listed {
		if c.ID == created.ID {
			found = true
			if c.Active {
				t.Fatal("list: expected the deactivated coupon to be inactive")
			}
		}
	}
	if !found {
		t.Fatal("list: deactivated coupon missing from the listing")
	}

	// Delete.
	resp = doJSON(t, http.MethodDelete, path, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	// Gone.
	resp = doGet(t, path)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateCouponRejectsMalformed(t *testing.T) {
	resp := doPost(t, "/api/coupons", couponRequest{
		Type: "bxgy",
		Details: map[string]any{
			"buy_products": []int64{},
			"buy_quantity": 2,
			"get_products": []int64{3},
			"get_quantity": 1,
		},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusBadRequest {
		t.Fatalf("expected error code 400, got %d", body.Code)
	}
}

func TestGetCouponNotFound(t *testing.T) {
	resp := doGet(t, "/api/coupons/999999")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
