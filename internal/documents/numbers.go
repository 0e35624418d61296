package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxNumberAttempts bounds the collision retries of GenerateNumber.
const MaxNumberAttempts = 10

// ErrNumberExhausted means every generated candidate collided. It points at a broken number index
// and is never retried further.
var ErrNumberExhausted = errors.New("could not generate a unique document number")

// NumberTaken reports whether a number is already used by a document of the same kind.
type NumberTaken func(ctx context.Context, number string) (bool, error)

// GenerateNumber returns PREFIX- followed by 8 uppercase hex characters of a random UUID.
func GenerateNumber(ctx context.Context, prefix string, taken NumberTaken) (string, error) {
	const op = "GenerateNumber"

	for attempt := 0; attempt < MaxNumberAttempts; attempt++ {
		candidate := prefix + "-" + randomHex8()
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %s after %d attempts: %w", op, prefix, MaxNumberAttempts, ErrNumberExhausted)
}

// EnsureUniqueNumber keeps a desired number when it is free and falls back to a generated one.
func EnsureUniqueNumber(ctx context.Context, prefix, desired string, taken NumberTaken) (string, error) {
	candidate := strings.TrimSpace(desired)
	if candidate == "" {
		return GenerateNumber(ctx, prefix, taken)
	}
	exists, err := taken(ctx, candidate)
	if err != nil {
		return "", fmt.Errorf("EnsureUniqueNumber: %w", err)
	}
	if !exists {
		return candidate, nil
	}
	return GenerateNumber(ctx, prefix, taken)
}

func randomHex8() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
