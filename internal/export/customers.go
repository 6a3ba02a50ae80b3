package export

import (
	"fmt"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// customerColumns is the customer import layout of the target billing
// system. Order is load-bearing; the importer matches positionally.
var customerColumns = []string{
	"customer[id]",
	"customer[first_name]",
	"customer[last_name]",
	"customer[phone]",
	"customer[company]",
	"customer[email]",
	"payment_method[type]",
	"payment_method[gateway_account_id]",
	"payment_method[reference_id]",
	"customer[auto_collection]",
	"customer[taxability]",
	"customer[vat_number]",
	"customer[preferred_currency_code]",
	"customer[net_term_days]",
	"customer[allow_direct_debit]",
	"customer[locale]",
	"customer[meta_data]",
	"customer[consolidated_invoicing]",
	"customer[invoice_notes]",
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
	"customer[registered_for_gst]",
	"customer[entity_code]",
	"customer[exempt_number]",
}

// buildCustomerRows derives one importable customer row per subscription.
// The upstream embeds the customer in each subscription, so the
// subscription list is the walk; a customer with several subscriptions
// produces several rows and the importer keeps the last one it sees.
func buildCustomerRows(subs []record.Record, stripeByID map[string]record.Record) ([][]any, error) {
	rows := make([][]any, 0, len(subs)+1)
	rows = append(rows, headerRow(customerColumns))

	for _, sub := range subs {
		cust := sub.Map("customer")
		if cust == nil {
			return nil, fmt.Errorf("subscription %s has no embedded customer", sub.String("id"))
		}
		card := sub.Map("credit_card") // nil for card-less subscriptions

		// The card's vault token names the Stripe customer holding it.
		// Joined with that customer's default source it forms the gateway
		// reference the importer needs. A token with no Stripe customer
		// behind it means the two systems disagree; stop the cycle.
		var cardToken any
		if vault := card.String("vault_token"); vault != "" {
			stripeCust, ok := stripeByID[vault]
			if !ok {
				return nil, fmt.Errorf("subscription %s references unknown stripe customer %s", sub.String("id"), vault)
			}
			cardToken = vault + "/" + stripeCust.String("default_source")
		}

		taxability := "exempt"
		if card.String("billing_country") == "GB" {
			taxability = "taxable"
		}

		cells := map[string]any{
			"customer[id]":                       cust.Value("reference"),
			"customer[first_name]":               cust.Value("first_name"),
			"customer[last_name]":                cust.Value("last_name"),
			"customer[phone]":                    cust.Value("phone"),
			"customer[company]":                  cust.Value("organization"),
			"customer[email]":                    cust.Value("email"),
			"customer[auto_collection]":          "off",
			"customer[taxability]":               taxability,
			"customer[preferred_currency_code]":  sub.Value("currency"),
			"billing_address[first_name]":        card.Value("first_name"),
			"billing_address[last_name]":         card.Value("last_name"),
			"billing_address[email]":             cust.Value("email"),
			"billing_address[line1]":             card.Value("billing_address"),
			"billing_address[line2]":             card.Value("billing_address_2"),
			"billing_address[city]":              card.Value("billing_city"),
			"billing_address[state]":             card.Value("billing_state"),
			"billing_address[zip]":               card.Value("billing_zip"),
			"billing_address[country]":           card.Value("billing_country"),
			"billing_address[validation_status]": "no",
		}
		if cardToken != nil {
			cells["payment_method[type]"] = "card"
			cells["payment_method[gateway_account_id]"] = "stripe"
			cells["payment_method[reference_id]"] = cardToken
			cells["customer[auto_collection]"] = "on"
		}
		if taxability == "taxable" {
			cells["customer[vat_number]"] = cust.Value("vat_number")
		}
		if cust.Truthy("verified") {
			cells["billing_address[validation_status]"] = "yes"
		}

		rows = append(rows, rowFor(customerColumns, cells))
	}
	return rows, nil
}
