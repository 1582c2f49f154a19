// Package service defines the lifecycle contract used to wire the audio
// core's external collaborators (the driver binding, MIDI source, preset
// store) into a host program without the core importing any of them.
package service

// Service defines the lifecycle interface for infrastructure subsystems.
// Services manage long-lived resources: audio backends, MIDI sources,
// preset stores.
//
// Lifecycle:
//  1. Construction (via factory)
//  2. Init(args...) - implicit configuration (e.g. from parsed flags/env)
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	// Return nil or empty slice if no dependencies
	Dependencies() []string

	// Init configures the service from optional args
	// Args are service-specific (config path, mute state, device filters)
	Init(args ...any) error

	// Start begins service operation (launches goroutines if any)
	// Called after all services have initialized
	Start() error

	// Stop halts service operation and releases resources
	// Must be idempotent - safe to call multiple times
	Stop() error
}

// ResourcePublisher is a callback for services to contribute resources to a
// host program. Services call this with wrapped resources; the receiver
// handles type routing (e.g. registering an AudioPlayer or a PresetStore).
type ResourcePublisher func(resource any)

// ResourceContributor is implemented by services that expose an API to the
// host program. Optional interface - services not implementing it are
// skipped during resource contribution.
type ResourceContributor interface {
	Contribute(publish ResourcePublisher)
}