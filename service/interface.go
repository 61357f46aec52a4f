// Package service defines the start/stop lifecycle shared by long-lived transports and stores
package service

import "context"

// Service is a long-lived subsystem: transports, brokers, recorders
//
// Lifecycle:
//  1. Construction (via New* with its config)
//  2. Start(ctx) - bind resources, launch goroutines; ctx bounds startup only
//  3. [runtime operation]
//  4. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the identifier used in logs
	Name() string

	// Start begins service operation
	Start(ctx context.Context) error

	// Stop halts service operation
	// Must be idempotent - safe to call multiple times
	Stop() error
}
