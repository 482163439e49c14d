package testutil

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/registry"
)

// SimpleModule is a test helper for building a mock module out of parts: a
// runner handler, an asset handler, an asset interface, and the manifest text
// that describes them. Unset parts are simply not registered.
type SimpleModule struct {
	RunnerName string
	Runner     *registry.RegisteredRunner

	AssetName string
	Asset     *registry.RegisteredAsset

	AssetType      string
	AssetInterface reflect.Type

	ManifestHCL string
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.RunnerName != "" && m.Runner != nil {
		r.RegisterRunner(m.RunnerName, m.Runner)
	}
	if m.AssetName != "" && m.Asset != nil {
		r.RegisterAssetHandler(m.AssetName, m.Asset)
	}
	if m.AssetType != "" && m.AssetInterface != nil {
		r.RegisterAssetInterface(m.AssetType, m.AssetInterface)
	}
}

// Manifest implements the registry.Module interface.
func (m *SimpleModule) Manifest() []byte {
	return []byte(m.ManifestHCL)
}

// NoOpModule registers a single "noop" runner that takes no inputs and does
// nothing. It is useful for tests that need a valid runnable step but only
// care about some other part of the pipeline.
type NoOpModule struct{}

// Register implements the registry.Module interface.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunNoop", &registry.RegisteredRunner{
		NewInput:  func() any { return new(struct{}) },
		InputType: reflect.TypeOf(struct{}{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(ctx context.Context, deps any, input any) (any, error) {
			return nil, nil
		},
	})
}

// Manifest implements the registry.Module interface.
func (m *NoOpModule) Manifest() []byte {
	return []byte(`
runner "noop" {
  lifecycle {
    on_run = "OnRunNoop"
  }
}
`)
}

// ExecutionRecord holds the start and end times for a single step's execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// SleeperModule is a self-contained module for concurrency and ordering
// tests. It registers a "sleeper" runner that sleeps for a fixed duration and
// records when each step ran.
type SleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string]*ExecutionRecord
	order          []string
	sleepDuration  time.Duration
}

// NewSleeperModule creates a sleeper module whose steps each take the given
// duration.
func NewSleeperModule(sleep time.Duration) *SleeperModule {
	return &SleeperModule{
		executionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
	}
}

// Record returns the execution record for the given step id, or nil if the
// step never ran.
func (m *SleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.executionTimes[id]
}

// Order returns the step ids in the order their handlers started.
func (m *SleeperModule) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

type sleeperInput struct {
	ID string `flowgo:"id"`
}

// Register implements the registry.Module interface.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunSleeper", &registry.RegisteredRunner{
		NewInput:  func() any { return new(sleeperInput) },
		InputType: reflect.TypeOf(sleeperInput{}),
		NewDeps:   func() any { return new(struct{}) },
		Fn: func(ctx context.Context, deps any, inputRaw any) (any, error) {
			input := inputRaw.(*sleeperInput)

			start := time.Now()
			m.mu.Lock()
			m.order = append(m.order, input.ID)
			m.mu.Unlock()

			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			m.mu.Lock()
			m.executionTimes[input.ID] = &ExecutionRecord{Start: start, End: time.Now()}
			m.mu.Unlock()
			return nil, nil
		},
	})
}

// Manifest implements the registry.Module interface.
func (m *SleeperModule) Manifest() []byte {
	return []byte(`
runner "sleeper" {
  lifecycle {
    on_run = "OnRunSleeper"
  }

  input "id" {
    type = string
  }
}
`)
}
