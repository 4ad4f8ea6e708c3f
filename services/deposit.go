package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultVerifierURL = "https://smsverifierapi-production.up.railway.app/api/verify-deposit"

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VerifyDeposit sends the copied SMS text to the external verifier.
// This sits entirely off the round's critical path; a verified deposit
// only touches the game through a ledger credit.
func VerifyDeposit(body string) (bool, error) {
	url := os.Getenv("VERIFIER_URL")
	if url == "" {
		url = defaultVerifierURL
	}

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return false, fmt.Errorf("marshal verify payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read verify response: %w", err)
	}

	var vr verifyResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return vr.Status == "success", nil
}
