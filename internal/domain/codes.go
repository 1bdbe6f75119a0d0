package domain

// Wire-stable error code enumerations. The integer values are shared with
// the external prover and on-chain verifier and must never be renumbered.

// ProofGenerationError codes reported by the prover collaborator.
const (
	ProofErrNone                  = 0
	ProofErrModelNotFound         = 1
	ProofErrWitnessGeneration     = 2
	ProofErrProofGenerationFailed = 3
	ProofErrTimeout               = 4
	ProofErrInvalidInput          = 5
	ProofErrSystemError           = 6
)

// VerificationError codes reported by the verifier collaborator.
const (
	VerifyErrNone               = 0
	VerifyErrCommitmentMismatch = 1
	VerifyErrProofInvalid       = 2
	VerifyErrDeadlineExceeded   = 3
	VerifyErrModelNotApproved   = 4
	VerifyErrInsufficientStake  = 5
	VerifyErrJobNotFound        = 6
	VerifyErrAlreadySubmitted   = 7
	VerifyErrInvalidJobStatus   = 8
	VerifyErrWorkerMismatch     = 9
	VerifyErrInputHashMismatch  = 10
)

// ProofErrorName returns a human-readable name for a proof generation code.
func ProofErrorName(code int) string {
	switch code {
	case ProofErrNone:
		return "NONE"
	case ProofErrModelNotFound:
		return "MODEL_NOT_FOUND"
	case ProofErrWitnessGeneration:
		return "WITNESS_GENERATION_FAILED"
	case ProofErrProofGenerationFailed:
		return "PROOF_GENERATION_FAILED"
	case ProofErrTimeout:
		return "TIMEOUT"
	case ProofErrInvalidInput:
		return "INVALID_INPUT"
	case ProofErrSystemError:
		return "SYSTEM_ERROR"
	}
	return "UNKNOWN"
}

// VerifyErrorName returns a human-readable name for a verification code.
func VerifyErrorName(code int) string {
	switch code {
	case VerifyErrNone:
		return "NONE"
	case VerifyErrCommitmentMismatch:
		return "COMMITMENT_MISMATCH"
	case VerifyErrProofInvalid:
		return "PROOF_INVALID"
	case VerifyErrDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case VerifyErrModelNotApproved:
		return "MODEL_NOT_APPROVED"
	case VerifyErrInsufficientStake:
		return "INSUFFICIENT_STAKE"
	case VerifyErrJobNotFound:
		return "JOB_NOT_FOUND"
	case VerifyErrAlreadySubmitted:
		return "ALREADY_SUBMITTED"
	case VerifyErrInvalidJobStatus:
		return "INVALID_JOB_STATUS"
	case VerifyErrWorkerMismatch:
		return "WORKER_MISMATCH"
	case VerifyErrInputHashMismatch:
		return "INPUT_HASH_MISMATCH"
	}
	return "UNKNOWN"
}
