// Package report shapes the single-line JSON payload the tool emits for
// every invocation, success or failure.
package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	// itemLimit caps how many selector matches are echoed back.
	itemLimit = 20
	// previewLimit caps text_preview length, counted in runes.
	previewLimit = 1000
	// unavailablePrefix marks capability failures. Callers of the tool
	// match on this prefix, so it is part of the wire format.
	unavailablePrefix = "scrapling_import_failed: "
)

// Success is the common head of every ok:true payload.
type Success struct {
	OK    bool    `json:"ok"`
	URL   string  `json:"url"`
	Title *string `json:"title"`
}

// SelectorReport is the ok:true payload when a selector was supplied.
// Count is the full match count; Items holds at most the first 20.
type SelectorReport struct {
	Success
	Selector string   `json:"selector"`
	Count    int      `json:"count"`
	Items    []string `json:"items"`
}

// TextReport is the ok:true payload when no selector was supplied.
type TextReport struct {
	Success
	TextPreview string `json:"text_preview"`
}

// FailureReport is the ok:false payload. URL is empty (and omitted) only
// for capability failures, which occur before any URL is known.
type FailureReport struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
	URL   string `json:"url,omitempty"`
}

// NewSuccess starts an ok:true payload. A nil title serializes as null.
func NewSuccess(url string, title *string) Success {
	return Success{OK: true, URL: url, Title: title}
}

// WithSelector attaches the selector results. texts must hold every match's
// trimmed text; the payload reports the full count but keeps 20 items.
func (s Success) WithSelector(selector string, texts []string) SelectorReport {
	items := texts
	if len(items) > itemLimit {
		items = items[:itemLimit]
	}
	if items == nil {
		items = []string{}
	}
	return SelectorReport{
		Success:  s,
		Selector: selector,
		Count:    len(texts),
		Items:    items,
	}
}

// WithTextPreview attaches a trimmed preview of the document's plain text.
func (s Success) WithTextPreview(text string) TextReport {
	return TextReport{
		Success:     s,
		TextPreview: truncateRunes(strings.TrimSpace(text), previewLimit),
	}
}

// Failure builds the runtime-failure payload for a fetch that got as far as
// having a URL.
func Failure(url string, err error) FailureReport {
	return FailureReport{OK: false, Error: err.Error(), URL: url}
}

// Unavailable builds the capability-failure payload emitted before argument
// parsing when the fetcher cannot be initialized.
func Unavailable(err error) FailureReport {
	return FailureReport{OK: false, Error: unavailablePrefix + err.Error()}
}

// Fatal builds the payload for failures that occur before any URL is known,
// such as configuration or usage errors. Output stays machine-parseable on
// every failure path.
func Fatal(err error) FailureReport {
	return FailureReport{OK: false, Error: err.Error()}
}

// Write serializes a payload as exactly one JSON line. Non-ASCII runes and
// HTML characters are preserved literally, not escaped.
func Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return eris.Wrap(err, "report: encode payload")
	}
	return nil
}

// truncateRunes cuts s after n runes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
