// Package encode resolves encoder candidates into a running encode by
// attempting each candidate in order until one opens successfully.
package encode

import (
	"context"

	"github.com/alharthydev/compresspro/internal/types"
)

// Opener opens an encoder for a candidate configuration. Implementations
// validate that the candidate can actually encode with the request's
// parameters before returning a ready Encoder.
type Opener interface {
	Open(ctx context.Context, candidate types.EncoderCandidate, req types.CompressionRequest) (Encoder, error)
}

// Encoder is an opened encoder ready to run the compression. Close must
// be safe to call on every exit path, including after Run returns.
type Encoder interface {
	// Run performs the encode, reporting the current frame and encoding
	// speed after each processed batch. It returns ctx.Err() when
	// cancelled.
	Run(ctx context.Context, onProgress func(frame int64, speed float64)) error
	// Candidate returns the candidate this encoder was opened for.
	Candidate() types.EncoderCandidate
	Close() error
}

// Attempt tries each candidate in order and returns the first encoder
// that opens, together with the attempt log. Per-candidate failures
// (hardware unavailable, encoder missing, parameters rejected) are
// recorded and recovered by falling through to the next candidate; they
// are never fatal on their own. When every candidate fails the returned
// error is an *AllFailedError aggregating all diagnostics.
func Attempt(ctx context.Context, opener Opener, candidates []types.EncoderCandidate, req types.CompressionRequest) (Encoder, []types.AttemptResult, error) {
	attempts := make([]types.AttemptResult, 0, len(candidates))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		enc, err := opener.Open(ctx, candidate, req)
		if err != nil {
			attempts = append(attempts, types.AttemptResult{
				Candidate:  candidate,
				Success:    false,
				Diagnostic: err.Error(),
			})
			continue
		}

		attempts = append(attempts, types.AttemptResult{
			Candidate:  candidate,
			Success:    true,
			Diagnostic: "encoder opened",
		})
		return enc, attempts, nil
	}

	return nil, attempts, &AllFailedError{Attempts: attempts}
}
