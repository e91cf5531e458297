package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    string
	}{
		{"valid object", `{"name":"Widget"}`, false, "Widget"},
		{"unknown fields are ignored", `{"name":"Widget","extra":1}`, false, "Widget"},
		{"empty body", ``, true, ""},
		{"malformed", `{"name":`, true, ""},
		{"trailing data", `{"name":"a"}{"name":"b"}`, true, ""},
		{"wrong type", `{"name":5}`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var dst payload
			err := DecodeJSON(rec, req, &dst)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidJSON)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, dst.Name)
		})
	}
}
