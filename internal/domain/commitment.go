package domain

import "time"

// Reveal is the data a worker discloses after execution. Hashing its
// fields in order must reproduce the commitment hash bit-for-bit.
type Reveal struct {
	ModelID    string `json:"model_id"`
	InputHash  string `json:"input_hash"`
	OutputHash string `json:"output_hash"`
	Nonce      string `json:"nonce"`
}

// Commitment binds a worker to a job. Before reveal the hash is a
// hiding pre-commitment over (jobID, worker, nonce); after reveal it is
// the content-binding hash over (modelID, inputHash, outputHash, nonce).
// A commitment is immutable except for the single transition to revealed.
type Commitment struct {
	JobID          string    `json:"job_id"`
	Worker         string    `json:"worker"`
	CommitmentHash string    `json:"commitment_hash"`
	Timestamp      time.Time `json:"timestamp"`
	Revealed       bool      `json:"revealed"`
	Reveal         *Reveal   `json:"reveal,omitempty"`
}
