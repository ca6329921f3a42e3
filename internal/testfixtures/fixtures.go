package testfixtures

import (
	"time"

	"github.com/example/facility-reservations/internal/policy"
	"github.com/example/facility-reservations/internal/secret"
)

// referenceDate is a Monday one week before the 2025 US daylight saving change.
var referenceDate = policy.Date{Year: 2025, Month: time.March, Day: 3}

// FastArgon2idParams keeps hashing cheap in tests. Never use it in production.
var FastArgon2idParams = secret.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// Policy returns the default facility policy.
func Policy() policy.Policy {
	return policy.Default()
}

// ReferenceDate returns the canonical facility-local Monday used by fixtures.
func ReferenceDate() policy.Date {
	return referenceDate
}

// ReferenceTime returns 08:00 facility time on ReferenceDate, before opening.
func ReferenceTime() time.Time {
	return At(referenceDate, "08:00")
}

// At returns the facility-local instant for clock ("HH:MM") on day. It panics
// on a malformed clock since fixtures are static.
func At(day policy.Date, clock string) time.Time {
	offset, err := policy.ParseClock(clock)
	if err != nil {
		panic(err)
	}
	return day.At(offset, Policy().Location)
}

// Hasher returns an argon2id hasher using FastArgon2idParams.
func Hasher() *secret.Hasher {
	return secret.NewHasher(FastArgon2idParams)
}
