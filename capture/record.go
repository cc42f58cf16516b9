// Package capture defines the record assembled for every observed HTTP
// exchange and shipped to the CodeComet collector.
package capture

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// timestampLayout keeps microsecond precision and an explicit UTC offset so
// records sort correctly across hosts.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Timestamp wraps time.Time with the collector's wire format.
type Timestamp struct {
	time.Time
}

// Now returns the current instant in UTC.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	parsed, err := time.Parse(timestampLayout, strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// executablePath is resolved once; the serving binary does not move while
// the process runs.
var executablePath = func() string {
	if path, err := os.Executable(); err == nil {
		return path
	}
	return os.Args[0]
}()

// Record is one observed request/response exchange. Field names follow the
// collector's ingestion schema.
type Record struct {
	RequestTime      Timestamp  `json:"request_time"`
	ResponseTime     *Timestamp `json:"response_time,omitempty"`
	ProjectID        string     `json:"project_id"`
	Method           string     `json:"method"`
	Path             string     `json:"path"`
	QueryString      string     `json:"query_string"`
	RequestHeaders   string     `json:"request_headers"`
	RawRequest       string     `json:"raw_request"`
	RawResponse      string     `json:"raw_response"`
	StatusCode       int        `json:"status_code"`
	ExecutablePath   string     `json:"executable_path"`
	ExceptionMessage string     `json:"exception_message,omitempty"`
	Traceback        string     `json:"traceback,omitempty"`
}

// NewRecord starts a record for projectID, stamping the request time.
func NewRecord(projectID string) *Record {
	return &Record{
		RequestTime:    Now(),
		ProjectID:      projectID,
		ExecutablePath: executablePath,
	}
}

// SetRequest fills the request-side fields from req and its already-drained
// body.
func (r *Record) SetRequest(req *http.Request, body []byte) {
	r.Method = req.Method
	r.Path = req.URL.Path
	r.QueryString = req.URL.RawQuery
	r.RequestHeaders = FlattenHeaders(req.Header)
	r.RawRequest = string(body)
}

// SetResponse records a completed response and stamps the response time.
func (r *Record) SetResponse(status int, body []byte) {
	now := Now()
	r.ResponseTime = &now
	r.StatusCode = status
	r.RawResponse = string(body)
}

// SetFault records a handler fault. The status is coerced to at least 500:
// whatever was written before the fault, the exchange did not complete
// normally. Response time stays unset; no response was produced.
func (r *Record) SetFault(status int, value any, stack []byte) {
	if status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	r.StatusCode = status
	r.ExceptionMessage = fmt.Sprintf("%v", value)
	r.Traceback = string(stack)
}

// FlattenHeaders renders headers as newline-separated "Key: Value" lines.
// Keys are sorted for a stable rendering; values keep their original order
// within each key.
func FlattenHeaders(h http.Header) string {
	if len(h) == 0 {
		return ""
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	first := true
	for _, k := range keys {
		for _, v := range h[k] {
			if !first {
				b.WriteByte('\n')
			}
			first = false
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(v)
		}
	}
	return b.String()
}

// MaskedHeaders returns a copy of h with every value of the named headers
// replaced by a placeholder. Names are matched case-insensitively.
func MaskedHeaders(h http.Header, names []string) http.Header {
	masked := h.Clone()
	for _, name := range names {
		key := http.CanonicalHeaderKey(name)
		if values, ok := masked[key]; ok {
			for i := range values {
				values[i] = "[REDACTED]"
			}
		}
	}
	return masked
}

// MarshalIndent renders the record as indented JSON for local inspection.
func (r *Record) MarshalIndent() string {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", r)
	}
	return string(out)
}
