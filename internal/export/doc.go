// Package export turns upstream billing data into importable datasets.
//
// One Run of the Pipeline is one export cycle. A cycle drains three
// listings (subscriptions and invoices from Chargify, customers from
// Stripe), joins them in memory, and produces six tables:
//
//   - customers, subscriptions, invoices: shaped for the target billing
//     system's CSV import format, one positional layout per dataset.
//
//   - chargify_subscriptions, chargify_invoices, stripe_customers: the
//     upstream records flattened as-is, for reconciliation next to the
//     curated views.
//
// # Fail fast, skip deliberately
//
// The curated builders distinguish two kinds of surprise. Data the
// migration has decided to leave behind is skipped silently: subscriptions
// without a product handle, cancelled invoices, zero-subtotal invoices,
// and the invoices of any skipped subscription. Data the mappings do not
// recognize fails the whole cycle: an unmapped plan handle, an unmapped
// subscription state, a card vault token with no matching Stripe customer,
// or an invoice referencing a subscription the listing never produced. A
// silent guess in those cases would import wrong numbers downstream, so
// the cycle keeps its previous output instead.
//
// # Consistency
//
// All six tables come from the same fetch. Run either returns a complete
// snapshot or an error; it never publishes partial output, and identical
// upstream data always produces byte-identical tables.
package export
