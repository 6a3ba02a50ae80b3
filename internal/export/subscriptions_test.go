package export

import (
	"errors"
	"testing"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// =============================================================================
// Test: buildSubscriptionRows
// =============================================================================

func TestBuildSubscriptionRows(t *testing.T) {
	t.Run("Given an active subscription When rows built Then maps plan, status and term dates", func(t *testing.T) {
		// Given
		subs := []record.Record{baseSubscription()}

		// When
		rows, plans, err := buildSubscriptionRows(subs)

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected header and one row, got %d rows", len(rows))
		}
		if got := cellAt(t, rows, 1, "subscription[plan_id]"); got != "scale-gbp" {
			t.Errorf("expected plan 'scale-gbp', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[status]"); got != "active" {
			t.Errorf("expected status 'active', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[started_at]"); got != "2019-03-01 10:00:00" {
			t.Errorf("expected started_at from created_at, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[current_term_start]"); got != "2020-01-01 00:00:00" {
			t.Errorf("expected current term start, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[current_term_end]"); got != "2020-02-01 00:00:00" {
			t.Errorf("expected current term end, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[trial_start]"); got != nil {
			t.Errorf("expected no trial start on active subscription, got %v", got)
		}
		if plans["1001"] != "scale-gbp" {
			t.Errorf("expected plan mapping for subscription 1001, got %v", plans)
		}
	})

	t.Run("Given an active subscription When rows built Then emits the fixed cells", func(t *testing.T) {
		// Given
		subs := []record.Record{baseSubscription()}

		// When
		rows, _, err := buildSubscriptionRows(subs)

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "subscription[plan_quantity]"); got != 1 {
			t.Errorf("expected plan quantity 1, got %v", got)
		}
		if got := cellAt(t, rows, 1, "currency"); got != "GBP" {
			t.Errorf("expected currency 'GBP', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[setup_fee]"); got != 0 {
			t.Errorf("expected setup fee 0, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[auto_collection]"); got != "on" {
			t.Errorf("expected auto collection 'on', got %v", got)
		}
	})

	t.Run("Given a trialing subscription When rows built Then emits trial dates only", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["state"] = "trialing"
		sub["trial_started_at"] = "2020-01-01T00:00:00Z"
		sub["trial_ended_at"] = "2020-01-15T00:00:00Z"

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "subscription[status]"); got != "trial" {
			t.Errorf("expected status 'trial', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[trial_start]"); got != "2020-01-01 00:00:00" {
			t.Errorf("expected trial start, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[trial_end]"); got != "2020-01-15 00:00:00" {
			t.Errorf("expected trial end, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[started_at]"); got != nil {
			t.Errorf("expected no started_at on trial, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[current_term_start]"); got != nil {
			t.Errorf("expected no term start on trial, got %v", got)
		}
	})

	t.Run("Given a trial that ended When rows built Then cancellation date comes from the trial end", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["state"] = "trial_ended"
		sub["trial_ended_at"] = "2020-01-15T00:00:00Z"
		sub["canceled_at"] = nil

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "subscription[status]"); got != "cancelled" {
			t.Errorf("expected status 'cancelled', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[cancelled_at]"); got != "2020-01-15 00:00:00" {
			t.Errorf("expected cancelled_at from trial end, got %v", got)
		}
		// Trial cells stay empty once the trial is over.
		if got := cellAt(t, rows, 1, "subscription[trial_end]"); got != nil {
			t.Errorf("expected no trial end cell, got %v", got)
		}
	})

	t.Run("Given a cancelled subscription When rows built Then cancellation date comes from canceled_at", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["state"] = "canceled"
		sub["canceled_at"] = "2020-03-01T00:00:00Z"

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "subscription[cancelled_at]"); got != "2020-03-01 00:00:00" {
			t.Errorf("expected cancelled_at, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[started_at]"); got != "2019-03-01 10:00:00" {
			t.Errorf("expected started_at on cancelled subscription, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[current_term_start]"); got != nil {
			t.Errorf("expected no term start on cancelled subscription, got %v", got)
		}
	})

	t.Run("Given an on-hold subscription When rows built Then pause date is set", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["state"] = "on_hold"
		sub["on_hold_at"] = "2020-04-01T00:00:00Z"

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "subscription[status]"); got != "paused" {
			t.Errorf("expected status 'paused', got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[pause_date]"); got != "2020-04-01 00:00:00" {
			t.Errorf("expected pause date, got %v", got)
		}
		if got := cellAt(t, rows, 1, "subscription[current_term_start]"); got != "2020-01-01 00:00:00" {
			t.Errorf("expected term start on paused subscription, got %v", got)
		}
	})

	t.Run("Given a subscription without a product handle When rows built Then skips it entirely", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["product"] = map[string]any{"handle": ""}

		// When
		rows, plans, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("expected header only, got %d rows", len(rows))
		}
		if len(plans) != 0 {
			t.Errorf("expected no plan mapping, got %v", plans)
		}
	})

	t.Run("Given an unmapped product handle When rows built Then returns ErrUnknownPlanHandle", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["product"] = map[string]any{"handle": "enterprise"}

		// When
		_, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err == nil {
			t.Fatal("expected error for unmapped handle")
		}
		if !errors.Is(err, ErrUnknownPlanHandle) {
			t.Errorf("expected ErrUnknownPlanHandle, got: %v", err)
		}
	})

	t.Run("Given an unmapped state When rows built Then returns ErrUnknownState", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["state"] = "assessing"

		// When
		_, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err == nil {
			t.Fatal("expected error for unmapped state")
		}
		if !errors.Is(err, ErrUnknownState) {
			t.Errorf("expected ErrUnknownState, got: %v", err)
		}
	})

	t.Run("Given one coupon code When rows built Then second coupon slot stays empty", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["coupon_codes"] = []any{"SAVE10"}

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "coupon_ids[0]"); got != "SAVE10" {
			t.Errorf("expected first coupon 'SAVE10', got %v", got)
		}
		if got := cellAt(t, rows, 1, "coupon_ids[1]"); got != nil {
			t.Errorf("expected empty second coupon, got %v", got)
		}
	})

	t.Run("Given three coupon codes When rows built Then keeps the first two", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		sub["coupon_codes"] = []any{"A", "B", "C"}

		// When
		rows, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err != nil {
			t.Fatalf("buildSubscriptionRows failed: %v", err)
		}
		if got := cellAt(t, rows, 1, "coupon_ids[0]"); got != "A" {
			t.Errorf("expected first coupon 'A', got %v", got)
		}
		if got := cellAt(t, rows, 1, "coupon_ids[1]"); got != "B" {
			t.Errorf("expected second coupon 'B', got %v", got)
		}
	})

	t.Run("Given a subscription without an embedded customer When rows built Then returns error", func(t *testing.T) {
		// Given
		sub := baseSubscription()
		delete(sub, "customer")

		// When
		_, _, err := buildSubscriptionRows([]record.Record{sub})

		// Then
		if err == nil {
			t.Fatal("expected error for missing embedded customer")
		}
	})
}
