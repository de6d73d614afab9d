// Package api contains tests that run against a real backend server.
//
// These tests require the backend server to be running before execution.
// They exercise the mailbox lifecycle and change stream endpoints over
// plain HTTP, the way an external client would.
//
// Usage:
//
//	# Start the backend server first
//	go run cmd/server/main.go
//
//	# Then run the API tests
//	go test -tags=api ./tests/api/... -v
//
// Environment Variables:
//
//	API_BASE_URL - Base URL of the API server (default: http://localhost:8080)
//	API_KEY      - API key for authentication (default: test-api-key-for-development-only-32chars)
//	TEST_USER_ID - ID of an existing user to run against (default: 1)
package api
