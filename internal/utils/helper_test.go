package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"19.995", 2000},
		{"19.994", 1999},
		{"19.99", 1999},
		{"0.005", 1},
		{"0", 0},
		{"120", 12000},
		{"1.1", 110},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToMinorUnits(decimal.RequireFromString(tt.input)))
		})
	}

	t.Run("Decoded from a JSON number", func(t *testing.T) {
		var body struct {
			Price decimal.Decimal `json:"price"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"price": 19.995}`), &body))
		assert.Equal(t, int64(2000), ToMinorUnits(body.Price))
	})
}

func TestToMajorUnits(t *testing.T) {
	assert.Equal(t, 19.99, ToMajorUnits(1999))
	assert.Equal(t, 0.0, ToMajorUnits(0))
	assert.Equal(t, 120.0, ToMajorUnits(12000))
	assert.Equal(t, "19.99", FormatMajor(1999))
	assert.Equal(t, "5.00", FormatMajor(500))
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSONError(w, "bad things", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad things"}`, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"mug"}`))

	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "mug", v.Name)

	bad := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	assert.Error(t, DecodeJSON(bad, &v))
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, "", PtrString(nil))
	assert.Equal(t, "x", PtrString(StrPtr("x")))
	assert.Nil(t, NilIfEmpty("  "))
	assert.Equal(t, "a", *NilIfEmpty("a"))
	assert.Equal(t, "b", FirstNonEmpty("", " ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty())
}
