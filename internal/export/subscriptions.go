package export

import (
	"fmt"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// subscriptionColumns is the subscription import layout of the target
// billing system.
var subscriptionColumns = []string{
	"customer[id]",
	"subscription[id]",
	"subscription[plan_id]",
	"subscription[plan_quantity]",
	"subscription[plan_unit_price]",
	"currency",
	"subscription[setup_fee]",
	"subscription[status]",
	"subscription[start_date]",
	"subscription[trial_start]",
	"subscription[trial_end]",
	"subscription[started_at]",
	"subscription[current_term_start]",
	"subscription[current_term_end]",
	"subscription[cancelled_at]",
	"subscription[pause_date]",
	"subscription[resume_date]",
	"billing_cycles",
	"subscription[auto_collection]",
	"subscription[po_number]",
	"coupon_ids[0]",
	"coupon_ids[1]",
	"subscription[payment_source_id]",
	"subscription[invoice_notes]",
	"subscription[meta_data]",
	"shipping_address[first_name]",
	"shipping_address[last_name]",
	"shipping_address[email]",
	"shipping_address[company]",
	"shipping_address[phone]",
	"shipping_address[line1]",
	"shipping_address[line2]",
	"shipping_address[line3]",
	"shipping_address[city]",
	"shipping_address[state_code]",
	"shipping_address[state]",
	"shipping_address[zip]",
	"shipping_address[country]",
	"shipping_address[validation_status]",
	"addons[id][0]",
	"addons[quantity][0]",
	"addons[unit_price][0]",
	"addons[id][1]",
	"addons[quantity][1]",
	"addons[unit_price][1]",
}

// buildSubscriptionRows derives one importable subscription row per
// upstream subscription, plus the plan mapping keyed by subscription ID
// that the invoice export joins on. Subscriptions without a product
// handle never enter the mapping, which cascades: their invoices are
// dropped with them.
func buildSubscriptionRows(subs []record.Record) ([][]any, map[string]string, error) {
	rows := make([][]any, 0, len(subs)+1)
	rows = append(rows, headerRow(subscriptionColumns))
	planBySubscription := make(map[string]string, len(subs))

	for _, sub := range subs {
		id := sub.String("id")
		cust := sub.Map("customer")
		if cust == nil {
			return nil, nil, fmt.Errorf("subscription %s has no embedded customer", id)
		}

		handle := sub.Map("product").String("handle")
		if handle == "" {
			// Legacy subscriptions predate product handles and are not
			// being migrated.
			continue
		}
		plan, err := planIDFor(handle)
		if err != nil {
			return nil, nil, fmt.Errorf("subscription %s: %w", id, err)
		}
		planBySubscription[id] = plan

		state := sub.String("state")
		status, err := statusFor(state)
		if err != nil {
			return nil, nil, fmt.Errorf("subscription %s: %w", id, err)
		}

		coupons := couponSlots(sub.List("coupon_codes"))

		cells := map[string]any{
			"customer[id]":                  cust.Value("reference"),
			"subscription[id]":              sub.Value("id"),
			"subscription[plan_id]":         plan,
			"subscription[plan_quantity]":   1,
			"currency":                      "GBP",
			"subscription[setup_fee]":       0,
			"subscription[status]":          status,
			"subscription[auto_collection]": "on",
			"coupon_ids[0]":                 coupons[0],
			"coupon_ids[1]":                 coupons[1],
		}

		setDate := func(column, field string) error {
			v, err := normalizeDate(sub.Value(field))
			if err != nil {
				return fmt.Errorf("subscription %s %s: %w", id, field, err)
			}
			cells[column] = v
			return nil
		}

		// Trial dates only make sense on a live trial; a cancelled trial's
		// end date becomes its cancellation date below.
		if state == "trialing" {
			if err := setDate("subscription[trial_start]", "trial_started_at"); err != nil {
				return nil, nil, err
			}
			if err := setDate("subscription[trial_end]", "trial_ended_at"); err != nil {
				return nil, nil, err
			}
		}
		if status == "active" || status == "cancelled" {
			if err := setDate("subscription[started_at]", "created_at"); err != nil {
				return nil, nil, err
			}
		}
		if status == "active" || status == "paused" {
			if err := setDate("subscription[current_term_start]", "current_period_started_at"); err != nil {
				return nil, nil, err
			}
			if err := setDate("subscription[current_term_end]", "current_period_ends_at"); err != nil {
				return nil, nil, err
			}
		}
		cancelField := "canceled_at"
		if state == "trial_ended" {
			cancelField = "trial_ended_at"
		}
		if err := setDate("subscription[cancelled_at]", cancelField); err != nil {
			return nil, nil, err
		}
		if err := setDate("subscription[pause_date]", "on_hold_at"); err != nil {
			return nil, nil, err
		}

		rows = append(rows, rowFor(subscriptionColumns, cells))
	}
	return rows, planBySubscription, nil
}

// couponSlots pads the coupon list to the two slots the import layout
// offers. Coupons beyond the second are dropped.
func couponSlots(codes []any) [2]any {
	var slots [2]any
	for i, code := range codes {
		if i >= len(slots) {
			break
		}
		slots[i] = code
	}
	return slots
}
