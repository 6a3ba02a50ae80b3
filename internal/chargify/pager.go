package chargify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cloudfind/chargify-to-chargebee/internal/record"
)

// PageIter walks a page-numbered listing lazily. No request is issued until
// the first Next call, and the walk ends at the first empty page. The
// iterator is single-use; calling the listing method again starts a fresh
// walk from page one.
type PageIter struct {
	ctx      context.Context
	client   *Client
	path     string
	params   url.Values
	envelope string

	page    int
	buf     []record.Record
	pos     int
	current record.Record
	done    bool
	err     error
}

func newPageIter(ctx context.Context, client *Client, path string, params url.Values, envelope string) *PageIter {
	if params == nil {
		params = url.Values{}
	}
	return &PageIter{
		ctx:      ctx,
		client:   client,
		path:     path,
		params:   params,
		envelope: envelope,
		page:     1,
	}
}

// Next advances to the next record, fetching pages on demand. It returns
// false when the listing is exhausted or a fetch failed; check Err to tell
// the two apart.
func (it *PageIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	for it.pos >= len(it.buf) {
		if !it.fetchPage() {
			return false
		}
	}
	it.current = it.buf[it.pos]
	it.pos++
	return true
}

// Record returns the record produced by the last successful Next.
func (it *PageIter) Record() record.Record {
	return it.current
}

// Err returns the error that stopped the walk, or nil after a clean finish.
func (it *PageIter) Err() error {
	return it.err
}

func (it *PageIter) fetchPage() bool {
	it.params.Set("page", strconv.Itoa(it.page))

	res, err := it.client.request(it.ctx, http.MethodGet, it.path, it.params, nil)
	if err != nil {
		it.err = fmt.Errorf("page %d of %s: %w", it.page, it.path, err)
		return false
	}

	if it.envelope != "" {
		m, ok := res.(map[string]any)
		if !ok {
			it.err = fmt.Errorf("page %d of %s: expected a JSON object, got %T", it.page, it.path, res)
			return false
		}
		wrapped, present := m[it.envelope]
		if !present {
			it.err = fmt.Errorf("page %d of %s: %w (%q)", it.page, it.path, ErrMissingEnvelope, it.envelope)
			return false
		}
		res = wrapped
	}

	// A null page terminates the walk the same way an empty one does.
	if res == nil {
		it.done = true
		return false
	}

	records, err := asRecordList(res)
	if err != nil {
		it.err = fmt.Errorf("page %d of %s: %w", it.page, it.path, err)
		return false
	}
	if len(records) == 0 {
		it.done = true
		return false
	}

	it.buf = records
	it.pos = 0
	it.page++
	return true
}
