package gin

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// drainRequestBody reads the full request body and restores an equivalent
// reader so downstream handlers see the original stream. On read failure
// the capture is empty and downstream sees an empty body; the exchange
// itself still proceeds.
func drainRequestBody(req *http.Request) []byte {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		body = nil
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// bodyCaptureWriter buffers the response instead of writing it through, so
// the exchange can be recorded before any byte reaches the client. copyTo
// replays the buffered response afterwards.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body        *bytes.Buffer
	status      int
	wroteHeader bool
}

func newBodyCaptureWriter(real gin.ResponseWriter) *bodyCaptureWriter {
	return &bodyCaptureWriter{
		ResponseWriter: real,
		body:           &bytes.Buffer{},
		status:         http.StatusOK,
	}
}

func (w *bodyCaptureWriter) Write(data []byte) (int, error) {
	return w.body.Write(data)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// WriteHeader records the status without committing it. Later calls win,
// matching what a handler would observe writing straight through.
func (w *bodyCaptureWriter) WriteHeader(code int) {
	if code > 0 {
		w.status = code
		w.wroteHeader = true
	}
}

// WriteHeaderNow is a no-op: nothing is committed until copyTo.
func (w *bodyCaptureWriter) WriteHeaderNow() {}

// Flush is a no-op. Streaming responses are buffered whole; capture trades
// incremental delivery for a complete record.
func (w *bodyCaptureWriter) Flush() {}

func (w *bodyCaptureWriter) Status() int {
	return w.status
}

func (w *bodyCaptureWriter) Size() int {
	return w.body.Len()
}

func (w *bodyCaptureWriter) Written() bool {
	return w.wroteHeader || w.body.Len() > 0
}

// copyTo replays the buffered status and body onto the real writer.
func (w *bodyCaptureWriter) copyTo(real gin.ResponseWriter) error {
	real.WriteHeader(w.status)
	if w.body.Len() > 0 {
		if _, err := real.Write(w.body.Bytes()); err != nil {
			return err
		}
	}
	real.WriteHeaderNow()
	return nil
}
