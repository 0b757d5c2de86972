package remote

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxDiagnostic bounds upstream bodies and error messages kept for logging.
	MaxDiagnostic = 2000
	// MaxClientDiagnostic bounds what is echoed back to the dashboard.
	MaxClientDiagnostic = 300

	// StatusShapeError marks a 2xx body whose JSON was not list shaped.
	StatusShapeError = "_error"
	// StatusTransport marks a failure before any HTTP status was received.
	StatusTransport = "EXC"
)

// Row is one element of an upstream list, kept as decoded JSON so unknown fields survive.
// Elements are normally objects but anything else is passed through untouched.
type Row = any

// Record is an object row.
type Record = map[string]any

// Records keeps the object elements of rows in order. Nulls and scalars are dropped.
func Records(rows []Row) []Record {
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if record, ok := row.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}

// ResultKind discriminates FetchResult.
type ResultKind int

const (
	KindRows ResultKind = iota + 1
	KindRemoteError
	KindTransportError
)

func (k ResultKind) String() string {
	switch k {
	case KindRows:
		return "rows"
	case KindRemoteError:
		return "remote_error"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// FetchResult is exactly one of Rows, RemoteError{Status, Body} or TransportError{Body}.
type FetchResult struct {
	Kind ResultKind
	Rows []Row
	// Status is the HTTP status code, StatusShapeError or StatusTransport.
	Status string
	// Body is the truncated upstream body, or the transport error message.
	Body string
}

// RowsResult wraps a successfully normalized list.
func RowsResult(rows []Row) FetchResult {
	if rows == nil {
		rows = []Row{}
	}
	return FetchResult{Kind: KindRows, Rows: rows}
}

// RemoteErrorResult records a non-2xx answer or a shape error.
func RemoteErrorResult(status, body string) FetchResult {
	return FetchResult{Kind: KindRemoteError, Status: status, Body: Truncate(body, MaxDiagnostic)}
}

// TransportErrorResult records a failure that produced no usable HTTP answer.
func TransportErrorResult(message string) FetchResult {
	return FetchResult{Kind: KindTransportError, Status: StatusTransport, Body: Truncate(message, MaxDiagnostic)}
}

// OK reports whether the result carries rows.
func (r FetchResult) OK() bool {
	return r.Kind == KindRows
}

// Summary renders "(status): body" with the body cut to limit runes.
func (r FetchResult) Summary(limit int) string {
	return fmt.Sprintf("(%s): %s", r.Status, Truncate(r.Body, limit))
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit || utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
