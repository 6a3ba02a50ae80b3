package export

import (
	"fmt"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// invoiceColumns is the invoice import layout of the target billing
// system. Amounts land as a single plan line item; the second line item
// slot and the shipping block are always empty.
var invoiceColumns = []string{
	"invoice[id]",
	"invoice[currency_code]",
	"invoice[customer_id]",
	"invoice[subscription_id]",
	"invoice[status]",
	"invoice[date]",
	"invoice[po_number]",
	"invoice[price_type]",
	"tax_override_reason",
	"invoice[vat_number]",
	"invoice[total]",
	"round_off",
	"invoice[due_date]",
	"invoice[net_term_days]",
	"use_for_proration",
	"billing_address[first_name]",
	"billing_address[last_name]",
	"billing_address[email]",
	"billing_address[company]",
	"billing_address[phone]",
	"billing_address[line1]",
	"billing_address[line2]",
	"billing_address[line3]",
	"billing_address[city]",
	"billing_address[state_code]",
	"billing_address[state]",
	"billing_address[zip]",
	"billing_address[country]",
	"billing_address[validation_status]",
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
	"line_items[id][0]",
	"line_items[entity_type][0]",
	"line_items[entity_id][0]",
	"line_items[date_from][0]",
	"line_items[date_to][0]",
	"line_items[description][0]",
	"line_items[unit_amount][0]",
	"line_items[quantity][0]",
	"line_items[amount][0]",
	"line_items[item_level_discount1_entity_id][0]",
	"line_items[item_level_discount1_amount][0]",
	"line_items[item_level_discount2_entity_id][0]",
	"line_items[item_level_discount2_amount][0]",
	"line_items[tax1_name][0]",
	"line_items[tax1_amount][0]",
	"line_items[tax2_name][0]",
	"line_items[tax2_amount][0]",
	"line_items[tax3_name][0]",
	"line_items[tax3_amount][0]",
	"line_items[tax4_name][0]",
	"line_items[tax4_amount][0]",
	"line_item_tiers[line_item_id][0]",
	"line_item_tiers[starting_unit][0]",
	"line_item_tiers[ending_unit][0]",
	"line_item_tiers[quantity_used][0]",
	"line_item_tiers[unit_amount][0]",
	"discounts[entity_type][0]",
	"discounts[entity_id][0]",
	"discounts[description][0]",
	"discounts[amount][0]",
	"taxes[name][0]",
	"taxes[rate][0]",
	"taxes[amount][0]",
	"taxes[description][0]",
	"taxes[juris_type][0]",
	"taxes[juris_name][0]",
	"taxes[juris_code][0]",
	"payments[amount][0]",
	"payments[payment_method][0]",
	"payments[date][0]",
	"payments[reference_number][0]",
	"notes[entity_type][0]",
	"notes[entity_id][0]",
	"notes[note][0]",
	"line_items[date_from][1]",
	"line_items[date_to][1]",
	"line_items[description][1]",
	"line_items[unit_amount][1]",
	"line_items[quantity][1]",
	"line_items[amount][1]",
	"line_items[entity_type][1]",
	"line_items[entity_id][1]",
}

// buildInvoiceRows derives one importable invoice row per upstream
// invoice. Cancelled and zero-subtotal invoices are dropped, as are
// invoices whose subscription carries no plan mapping. An invoice
// referencing a subscription the listing never produced fails the cycle.
func buildInvoiceRows(invoices []record.Record, subsByID map[string]record.Record, planBySubscription map[string]string) ([][]any, error) {
	rows := make([][]any, 0, len(invoices)+1)
	rows = append(rows, headerRow(invoiceColumns))

	for _, inv := range invoices {
		uid := inv.String("uid")
		cust := inv.Map("customer")
		if cust == nil {
			return nil, fmt.Errorf("invoice %s has no embedded customer", uid)
		}
		sub, ok := subsByID[inv.String("subscription_id")]
		if !ok {
			return nil, fmt.Errorf("invoice %s references unknown subscription %s", uid, inv.String("subscription_id"))
		}
		plan, ok := planBySubscription[sub.String("id")]
		if !ok {
			continue
		}
		addr := inv.Map("billing_address")
		if addr == nil {
			return nil, fmt.Errorf("invoice %s has no billing address", uid)
		}

		// The invoice covers one billing month starting at the issue date.
		// An unparseable issue date fails the cycle even on invoices the
		// status checks below would drop.
		periodFrom, err := parseDate(inv.String("issue_date"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s issue_date: %w", uid, err)
		}
		periodTo := addMonths(periodFrom, 1)

		taxAmount, err := toFloat(inv.Value("tax_amount"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s tax_amount: %w", uid, err)
		}
		taxed := taxAmount != 0

		if inv.String("status") == "canceled" {
			continue
		}
		subtotal, err := toFloat(inv.Value("subtotal_amount"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s subtotal_amount: %w", uid, err)
		}
		if subtotal == 0 {
			continue
		}
		credit, err := toFloat(inv.Value("credit_amount"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s credit_amount: %w", uid, err)
		}
		discount, err := toFloat(inv.Value("discount_amount"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s discount_amount: %w", uid, err)
		}
		amount := subtotal - credit
		total := amount - discount + taxAmount

		paidDate, err := normalizeDate(inv.Value("paid_date"))
		if err != nil {
			return nil, fmt.Errorf("invoice %s paid_date: %w", uid, err)
		}

		cells := map[string]any{
			"invoice[id]":                  inv.Value("uid"),
			"invoice[currency_code]":       "GBP",
			"invoice[subscription_id]":     inv.Value("subscription_id"),
			"invoice[status]":              inv.Value("status"),
			"invoice[date]":                formatDateCell(periodFrom),
			"invoice[po_number]":           inv.Value("sequence_number"),
			"invoice[price_type]":          "tax_inclusive",
			"invoice[total]":               total,
			"use_for_proration":            "TRUE",
			"billing_address[first_name]":  cust.Value("first_name"),
			"billing_address[last_name]":   cust.Value("last_name"),
			"billing_address[email]":       cust.Value("email"),
			"billing_address[company]":     cust.Value("organization"),
			"billing_address[line1]":       addr.Value("street"),
			"billing_address[line2]":       addr.Value("line2"),
			"billing_address[city]":        addr.Value("city"),
			"billing_address[state]":       addr.Value("state"),
			"billing_address[zip]":         addr.Value("zip"),
			"billing_address[country]":     addr.Value("country"),
			"line_items[entity_type][0]":   "plan",
			"line_items[entity_id][0]":     plan,
			"line_items[date_from][0]":     formatDateCell(periodFrom),
			"line_items[date_to][0]":       formatDateCell(periodTo),
			"line_items[description][0]":   fmt.Sprintf("%s - %s", inv.String("product_family_name"), inv.String("product_name")),
			"line_items[unit_amount][0]":   amount,
			"line_items[quantity][0]":      1,
			"line_items[amount][0]":        amount,
			"payments[amount][0]":          inv.Value("paid_amount"),
			"payments[payment_method][0]":  "other",
			"payments[date][0]":            paidDate,
		}
		if taxed {
			cells["line_items[tax1_name][0]"] = "VAT"
			cells["line_items[tax1_amount][0]"] = inv.Value("tax_amount")
			cells["taxes[name][0]"] = "VAT"
			cells["taxes[rate][0]"] = "20"
			cells["taxes[amount][0]"] = inv.Value("tax_amount")
		}
		if discount != 0 {
			if sub.Truthy("coupon_code") {
				cells["discounts[entity_type][0]"] = "document_level_coupon"
			}
			cells["discounts[entity_id][0]"] = sub.Value("coupon_code")
			cells["discounts[amount][0]"] = inv.Value("discount_amount")
		}

		rows = append(rows, rowFor(invoiceColumns, cells))
	}
	return rows, nil
}
