package httpxmock

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// JSONResponse builds an in-memory response, for stubbing MockDoer.Do.
func JSONResponse(status int, body any) *http.Response {
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(&buf),
	}
}
