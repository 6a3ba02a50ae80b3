// Package chargify is a client for the Chargify (Advanced Billing) API.
//
// Requests authenticate with HTTP basic auth, API key as the username and
// the literal "x" as the password, against https://{domain}.chargify.com.
// Every endpoint path ends in ".json".
//
// # Listings
//
// List endpoints are page-numbered: the client walks ?page=1,2,3... and
// stops at the first page that comes back empty. PageIter exposes this walk
// lazily with a Next/Record/Err loop:
//
//	it := client.Subscriptions(ctx, 0)
//	for it.Next() {
//	    rec := it.Record()
//	    // ...
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// Some listings wrap their page in an envelope object ({"invoices": [...]});
// the iterator unwraps it and fails the walk with ErrMissingEnvelope when
// the announced key is absent.
//
// Subscription listing entries are themselves wrapped, one {"subscription":
// {...}} object per entry. The client does not unwrap those; the export
// pipeline does.
//
// # Errors
//
// Non-2xx responses become *APIError. The API reports failures as a JSON
// object with an "errors" field; when that cannot be parsed the raw response
// body is carried instead, so upstream HTML error pages still surface in
// logs.
package chargify
