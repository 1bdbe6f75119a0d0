package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/attest-network/attest/internal/daemon"
)

// apiBase returns the base URL of the running node's API.
func apiBase() (string, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port), nil
}

// apiGet fetches a JSON document from the running node.
func apiGet(path string, out any) error {
	base, err := apiBase()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(base + path)
	if err != nil {
		return fmt.Errorf("is the node running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiPost sends a JSON body to the running node.
func apiPost(path string, body any, out any) error {
	base, err := apiBase()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(base+path, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("is the node running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
