package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"detail string", 404, `{"detail":"Judgement not found"}`, KindValidation, "Judgement not found"},
		{"detail list", 422, `{"detail":[{"loc":["body","email"],"msg":"invalid email"},{"msg":"password too short"}]}`, KindValidation, "invalid email, password too short"},
		{"message field", 400, `{"message":"bad cursor"}`, KindValidation, "bad cursor"},
		{"error field", 403, `{"error":"plan does not include state acts"}`, KindForbidden, "plan does not include state acts"},
		{"array body", 400, `["first","second"]`, KindValidation, "first, second"},
		{"unauthorized", 401, `{"detail":"Could not validate credentials"}`, KindAuth, "Could not validate credentials"},
		{"html body", 502, `<html>Bad Gateway</html>`, KindServer, "HTTP 502: Bad Gateway"},
		{"empty body", 500, ``, KindServer, "HTTP 500: Internal Server Error"},
		{"empty detail", 409, `{"detail":""}`, KindValidation, "HTTP 409: Conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errorFromResponse(tt.status, []byte(tt.body))
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestError_UserMessage(t *testing.T) {
	server := &Error{Kind: KindServer, Message: "HTTP 500: Internal Server Error"}
	assert.Equal(t, "Something went wrong on our side. Please try again later.", server.UserMessage())

	validation := &Error{Kind: KindValidation, Message: "year must be a number"}
	assert.Equal(t, "year must be a number", validation.UserMessage())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("list judgments: %w", &Error{Kind: KindForbidden})

	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "forbidden", KindForbidden.String())
}
