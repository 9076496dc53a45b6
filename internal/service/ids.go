package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator allocates child ids. Uniqueness is enforced by the store; generated collisions are retried.
type IDGenerator interface {
	NewChildID() string
}

// UUIDGenerator yields "CH" + 22 upper-case hex digits of a random UUID
type UUIDGenerator struct{}

func (UUIDGenerator) NewChildID() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CH" + hex[:22]
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// maxChildIDAttempts bounds retries on generated-id collisions
const maxChildIDAttempts = 3
