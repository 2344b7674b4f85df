package helpers

import (
	"math/rand"
	"time"
)

// RandUnix returns rand seeded with current time, used to shuffle test cases.
func RandUnix() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
