package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyDepositSuccess(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": "matched"})
	}))
	defer srv.Close()
	t.Setenv("VERIFIER_URL", srv.URL)

	sms := "You have received ETB 100.00 from ..."
	ok, err := VerifyDeposit(sms)
	require.NoError(t, err)
	assert.True(t, ok, `the verifier reports "success" on a match`)
	assert.Equal(t, sms, got["body"])
}

func TestVerifyDepositRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "failed", "message": "no match"})
	}))
	defer srv.Close()
	t.Setenv("VERIFIER_URL", srv.URL)

	ok, err := VerifyDeposit("junk text")
	require.NoError(t, err)
	assert.False(t, ok)
}
