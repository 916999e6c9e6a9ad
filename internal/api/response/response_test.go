package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, map[string]string{"name": "Acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Acme", body["data"]["name"])
}

func TestCollectionMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	Collection(rec, []int{1, 2}, NewMeta(2, 20, 45))

	var body struct {
		Meta PaginationMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Meta.Page)
	assert.Equal(t, 45, body.Meta.Total)
	assert.Equal(t, 3, body.Meta.LastPage)
}

func TestNewMetaEmptyResult(t *testing.T) {
	meta := NewMeta(1, 20, 0)
	assert.Equal(t, 1, meta.LastPage)
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusForbidden, "FORBIDDEN", "Insufficient scope", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
	assert.Equal(t, "Insufficient scope", body.Error.Message)
}

func TestValidationFailedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationFailed(rec, map[string]string{"email": "email is required"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "email is required", body.Error.Details["email"])
}
