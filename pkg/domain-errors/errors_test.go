package derrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"lifelink/pkg/platform/sentinel"
)

func TestIs_MatchesCodeThroughWrapping(t *testing.T) {
	err := New(CodeAlreadyResponded, "you have already responded to this request")
	wrapped := fmt.Errorf("accept request: %w", err)

	assert.True(t, Is(wrapped, CodeAlreadyResponded))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(errors.New("plain"), CodeInternal))
}

func TestWrap_PreservesCause(t *testing.T) {
	err := Wrap(CodeNotFound, "emergency request not found", sentinel.ErrNotFound)

	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("store unavailable")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:       http.StatusBadRequest,
		CodeMissingLocation:  http.StatusBadRequest,
		CodeUnauthorized:     http.StatusUnauthorized,
		CodeNotFound:         http.StatusNotFound,
		CodeInvalidState:     http.StatusConflict,
		CodeAlreadyResponded: http.StatusConflict,
		CodeConflict:         http.StatusConflict,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}

func TestWithDetails_CarriesFieldMessages(t *testing.T) {
	err := WithDetails(CodeValidation, "missing required fields", map[string]string{
		"bloodGroup": "Blood group is required",
		"units":      "Units are required",
	})

	assert.Equal(t, "missing required fields", err.Error())
	assert.Len(t, err.Details, 2)
}
