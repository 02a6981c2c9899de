package toolmanager

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"deepcli/internal/errors"
	"deepcli/internal/logging"
	"deepcli/internal/performance"
	"deepcli/internal/tools"
)

// ExecutionRecord captures one completed tool execution. Records are kept in
// completion order.
type ExecutionRecord struct {
	ID        string          `json:"id"`
	Tool      string          `json:"tool"`
	Params    tools.Params    `json:"params"`
	Response  *tools.Response `json:"response"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// ToolInfo describes a registered tool for listings. Name and Description are
// filled only for tools that have already been instantiated; listing never
// forces a load.
type ToolInfo struct {
	Key         string `json:"key"`
	Loaded      bool   `json:"loaded"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Manager resolves tools lazily from a Registry, caches instances, executes
// them, and keeps an execution history. All methods are safe for concurrent
// use.
type Manager struct {
	registry *Registry
	logger   logging.Logger
	monitor  *performance.Monitor

	mu        sync.RWMutex
	instances map[string]tools.Tool
	history   []ExecutionRecord

	group singleflight.Group
}

// NewManager builds a Manager over registry. monitor may be nil.
func NewManager(registry *Registry, logger logging.Logger, monitor *performance.Monitor) *Manager {
	return &Manager{
		registry:  registry,
		logger:    logging.OrNop(logger),
		monitor:   monitor,
		instances: make(map[string]tools.Tool),
	}
}

// GetTool returns the cached instance for key. It never triggers a load.
func (m *Manager) GetTool(key string) (tools.Tool, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	m.mu.RLock()
	defer m.mu.RUnlock()
	instance, ok := m.instances[key]
	return instance, ok
}

// Resolve returns the instance for key, building it on first use. Concurrent
// callers for the same key share one construction. A factory failure is not
// cached, so a later call retries the build.
func (m *Manager) Resolve(ctx context.Context, key string) (tools.Tool, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	m.mu.RLock()
	instance, ok := m.instances[key]
	m.mu.RUnlock()
	if ok {
		return instance, nil
	}

	result, err, _ := m.group.Do(key, func() (any, error) {
		m.mu.RLock()
		cached, ok := m.instances[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		factory, ok := m.registry.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("tool not found: %s", key)
		}

		start := time.Now()
		built, err := factory(ctx)
		if err != nil {
			return nil, fmt.Errorf("build tool %q: %w", key, err)
		}
		if built == nil {
			return nil, fmt.Errorf("factory for %q returned no tool", key)
		}

		m.mu.Lock()
		m.instances[key] = built
		m.mu.Unlock()

		if m.monitor != nil {
			m.monitor.RecordToolLoad(key, time.Since(start))
		}
		m.logger.Info("loaded tool %s in %s", key, time.Since(start).Round(time.Microsecond))
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(tools.Tool), nil
}

// ExecuteTool runs the named tool and always returns a normalized response.
// Unknown tools, factory failures, tool errors and panics all surface as a
// failed response rather than an error. ExecutionTime is overwritten with the
// wall-clock duration measured here, regardless of what the tool reported.
func (m *Manager) ExecuteTool(ctx context.Context, key string, params tools.Params) *tools.Response {
	key = strings.ToLower(strings.TrimSpace(key))
	start := time.Now()
	response := m.execute(ctx, key, params)
	elapsed := time.Since(start)

	response.ExecutionTime = elapsed.Seconds()
	response.Normalize()

	m.record(ExecutionRecord{
		ID:        uuid.NewString(),
		Tool:      key,
		Params:    params,
		Response:  response,
		StartedAt: start,
		Duration:  elapsed,
	})
	if m.monitor != nil {
		m.monitor.RecordRequest(key, response.Success, elapsed)
	}
	return response
}

func (m *Manager) execute(ctx context.Context, key string, params tools.Params) (response *tools.Response) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("tool %s panicked: %v", key, r)
			response = tools.Fail(fmt.Sprintf("tool %s crashed: %v", key, r))
		}
	}()

	tool, err := m.Resolve(ctx, key)
	if err != nil {
		m.logger.Warn("tool %s unavailable: %v", key, err)
		return tools.Fail(err.Error())
	}

	response, err = tool.Execute(ctx, params)
	if err != nil {
		return failureResponse(key, err)
	}
	if response == nil {
		return tools.Fail(fmt.Sprintf("tool %s returned no response", key))
	}
	return response
}

// failureResponse maps an execution error to a failed response, with timeout
// status for deadline and retry-exhaustion errors.
func failureResponse(key string, err error) *tools.Response {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, errors.ErrRetriesExhausted) {
		return tools.TimedOut(fmt.Sprintf("tool %s timed out: %v", key, err))
	}
	return tools.Fail(fmt.Sprintf("tool %s failed: %v", key, err))
}

func (m *Manager) record(rec ExecutionRecord) {
	m.mu.Lock()
	m.history = append(m.history, rec)
	m.mu.Unlock()
}

// History returns the most recent executions in completion order, oldest
// first. limit <= 0 returns everything.
func (m *Manager) History(limit int) []ExecutionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.history
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]ExecutionRecord, len(records))
	copy(out, records)
	return out
}

// ClearHistory drops all execution records.
func (m *Manager) ClearHistory() {
	m.mu.Lock()
	m.history = nil
	m.mu.Unlock()
}

// ListTools describes every registered tool in registration order, without
// instantiating any of them.
func (m *Manager) ListTools() []ToolInfo {
	keys := m.registry.Keys()
	infos := make([]ToolInfo, 0, len(keys))

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, key := range keys {
		info := ToolInfo{Key: key}
		if instance, ok := m.instances[key]; ok {
			info.Loaded = true
			info.Name = instance.Name()
			info.Description = instance.Description()
		}
		infos = append(infos, info)
	}
	return infos
}

// LoadedCount reports how many tools have been instantiated.
func (m *Manager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}
