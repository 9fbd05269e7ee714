package httpx

import (
	"bytes"
	"net/http"
)

// ResponseBuffer records a response so that a handler can inspect it before
// forwarding it to the client.
type ResponseBuffer struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func NewResponseBuffer() *ResponseBuffer {
	return &ResponseBuffer{header: http.Header{}}
}

// Status is the recorded status code, 200 if none was written.
func (resp *ResponseBuffer) Status() int {
	if resp.status == 0 {
		return http.StatusOK
	}
	return resp.status
}

func (resp *ResponseBuffer) Header() http.Header {
	return resp.header
}

func (resp *ResponseBuffer) Body() []byte {
	return resp.body.Bytes()
}

func (resp *ResponseBuffer) Write(body []byte) (int, error) {
	return resp.body.Write(body)
}

func (resp *ResponseBuffer) WriteHeader(statusCode int) {
	if resp.status == 0 {
		resp.status = statusCode
	}
}

// Flush copies headers, status and body to w.
func (resp *ResponseBuffer) Flush(w http.ResponseWriter) error {
	header := w.Header()
	for key, value := range resp.header {
		header[key] = value
	}
	w.WriteHeader(resp.Status())
	_, err := w.Write(resp.body.Bytes())
	return err
}
