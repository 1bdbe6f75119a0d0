package security

import (
	"encoding/hex"
	"strings"
	"testing"
)

// ─── Content Hashes ─────────────────────────────────────────────────────────

func TestHashInput_Deterministic(t *testing.T) {
	a := HashInput("what is the capital of France?")
	b := HashInput("what is the capital of France?")
	if a != b {
		t.Errorf("equal inputs produced different digests: %s vs %s", a, b)
	}
}

func TestHashInput_SingleBitChange(t *testing.T) {
	a := HashInput("prompt-a")
	b := HashInput("prompt-b")
	if a == b {
		t.Error("different inputs produced the same digest")
	}
}

func TestHashInput_Width(t *testing.T) {
	got := HashInput("x")
	if len(got) != 2*HashSize {
		t.Errorf("digest length = %d, want %d", len(got), 2*HashSize)
	}
	if _, err := hex.DecodeString(got); err != nil {
		t.Errorf("digest is not valid hex: %v", err)
	}
}

func TestHashOutput_MapKeyOrder(t *testing.T) {
	a, err := HashOutput(map[string]int{"tokens": 42, "latency_ms": 7})
	if err != nil {
		t.Fatalf("HashOutput: %v", err)
	}
	b, err := HashOutput(map[string]int{"latency_ms": 7, "tokens": 42})
	if err != nil {
		t.Fatalf("HashOutput: %v", err)
	}
	if a != b {
		t.Error("map key order changed the digest — serialization is not canonical")
	}
}

func TestHashOutput_Unserializable(t *testing.T) {
	if _, err := HashOutput(make(chan int)); err == nil {
		t.Error("expected error for unserializable value")
	}
}

func TestHashModel(t *testing.T) {
	a := HashModel([]byte{0x01, 0x02})
	b := HashModel([]byte{0x01, 0x03})
	if a == b {
		t.Error("different model bytes produced the same digest")
	}
}

// ─── Job IDs ────────────────────────────────────────────────────────────────

func TestGenerateJobID_Deterministic(t *testing.T) {
	in := HashInput("prompt")
	a := GenerateJobID("0xPayer", in, 1700000000000)
	b := GenerateJobID("0xPayer", in, 1700000000000)
	if a != b {
		t.Error("identical inputs produced different job IDs")
	}
}

func TestGenerateJobID_Distinct(t *testing.T) {
	in := HashInput("prompt")
	base := GenerateJobID("0xPayer", in, 1700000000000)

	tests := []struct {
		name string
		got  string
	}{
		{"different payer", GenerateJobID("0xOther", in, 1700000000000)},
		{"different input", GenerateJobID("0xPayer", HashInput("other"), 1700000000000)},
		{"different timestamp", GenerateJobID("0xPayer", in, 1700000000001)},
	}
	for _, tt := range tests {
		if tt.got == base {
			t.Errorf("%s: job ID collided with base", tt.name)
		}
	}
}

// ─── Nonces ─────────────────────────────────────────────────────────────────

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	b, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	if a == b {
		t.Error("two nonces are identical")
	}
	if len(a) != 2*NonceSize {
		t.Errorf("nonce length = %d, want %d", len(a), 2*NonceSize)
	}
}

// ─── Field Words ────────────────────────────────────────────────────────────

func TestHashFields_Deterministic(t *testing.T) {
	a := HashFields("job-1", "0xWorker", "nonce")
	b := HashFields("job-1", "0xWorker", "nonce")
	if a != b {
		t.Error("identical fields produced different digests")
	}
}

func TestHashFields_OrderMatters(t *testing.T) {
	a := HashFields("job-1", "0xWorker")
	b := HashFields("0xWorker", "job-1")
	if a == b {
		t.Error("field order did not affect the digest")
	}
}

func TestHashFields_HexFieldUsedRaw(t *testing.T) {
	// A 64-char hex field must contribute its raw 32 bytes, so the same
	// digest written upper/lower case hashes identically after decode.
	raw := HashInput("payload")
	a := HashFields(raw)
	b := HashFields(strings.ToUpper(raw))
	if a != b {
		t.Error("hex field was not canonicalized to raw bytes")
	}
}

func TestHashFields_NonHexFieldHashedDown(t *testing.T) {
	// A non-hex field and its own digest canonicalize to the same word:
	// both sides of the wire may pre-hash free-form fields.
	a := HashFields("model-a")
	b := HashFields(HashInput("model-a"))
	if a != b {
		t.Error("non-hex field canonicalization mismatch")
	}
}
