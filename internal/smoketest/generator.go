package smoketest

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const randomFloatDivisor = 1000000

var models = []string{
	"gpt-4o", "claude-3-opus", "llama-3-70b", "mistral-large", "qwen2-72b", "gemma-2-27b",
}

// randomFloat returns a value in [0, 1) using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func randomModel() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(models))))
	return models[n.Int64()]
}

// generateSubmissions creates n submissions, each for a unique team so the
// run can find its own rows on a shared leaderboard.
func generateSubmissions(n int) []Submission {
	out := make([]Submission, n)
	for i := range out {
		out[i] = Submission{
			Team:         "smoke-" + uuid.NewString(),
			Model:        randomModel(),
			FullContext:  randomFloat(),
			GoldEvidence: randomFloat(),
		}
	}
	return out
}
