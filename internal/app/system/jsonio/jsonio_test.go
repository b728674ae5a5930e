package jsonio

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

type body struct {
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"ok", `{"name":"Asha"}`, false},
		{"unknown field", `{"name":"Asha","admin":true}`, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, true},
		{"malformed", `{"name":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.in))
			var b body
			err := Decode(httptest.NewRecorder(), r, &b)
			if (err != nil) != tt.wantErr {
				t.Errorf("Decode err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(""))
	var b body
	if err := Decode(httptest.NewRecorder(), r, &b); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("err = %v, want ErrEmptyBody", err)
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, 201, body{Name: "x"})
	if rec.Code != 201 {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"name":"x"}` {
		t.Errorf("body = %s", got)
	}
}
