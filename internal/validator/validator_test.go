package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type sample struct {
	UserID string `json:"user_id" binding:"required,notblank"`
	Count  *int   `json:"count" binding:"required,min=0"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst sample
	return Bind(c, &dst)
}

func TestBind(t *testing.T) {
	Setup()

	tests := []struct {
		name  string
		body  string
		field string
		want  string
	}{
		{"valid", `{"user_id":"u1","count":0}`, "", ""},
		{"blank user", `{"user_id":"   ","count":1}`, "user_id", "user_id must not be blank"},
		{"missing user", `{"count":1}`, "user_id", "user_id is a required field"},
		{"missing count", `{"user_id":"u1"}`, "count", "count is a required field"},
		{"negative count", `{"user_id":"u1","count":-1}`, "count", "count must be 0 or greater"},
		{"malformed json", `{"user_id":`, "detail", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := bindBody(t, tt.body)
			if tt.field == "" {
				if fields != nil {
					t.Fatalf("unexpected errors: %v", fields)
				}
				return
			}
			msg, ok := fields[tt.field]
			if !ok {
				t.Fatalf("missing error for %s: %v", tt.field, fields)
			}
			if tt.want != "" && msg != tt.want {
				t.Errorf("message = %q, want %q", msg, tt.want)
			}
		})
	}
}
