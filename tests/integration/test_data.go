package integration

import (
	"fmt"
	"time"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@legalease.com", ts, suffix)
	password = "TestPassword123!"
	return
}
