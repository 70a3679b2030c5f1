package test

import (
	"math/rand"
	"time"
)

// Random test data helpers. Reseed with RandSeed for reproducible failures.

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

func RandSeed(seed int) {
	rng = rand.New(rand.NewSource(int64(seed)))
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// RandBytes returns n bytes of lowercase letters.
func RandBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rng.Intn(len(letters))]
	}
	return b
}

func RandString(n int) string {
	return string(RandBytes(n))
}

// RandBinary returns n bytes drawn from the full byte range, for data that
// shouldn't look like text.
func RandBinary(n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}
