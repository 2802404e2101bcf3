package heatmiser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/heatmiser-bridge/internal/infrastructure/mqtt"
)

// Bus settle times. The UH1 needs quiet time between exchanges; polls
// hold the bus longer but commands are followed by an immediate state
// read, so they settle longer.
const (
	postPollSettle    = 250 * time.Millisecond
	postCommandSettle = 500 * time.Millisecond
)

// Bridge orchestrates bidirectional translation between the UH1 bus
// and MQTT. It handles:
//   - Receiving commands via MQTT and writing them to thermostats
//   - Polling zone state on a timer and publishing it
//   - Home Assistant discovery and graceful shutdown
//
// All bus work flows through a single worker goroutine consuming the
// priority queue, so commands overtake polls but nothing ever runs
// concurrently on the half-duplex link.
//
// Thread Safety: all exported methods are safe for concurrent use.
type Bridge struct {
	bridgeID        string
	discoveryPrefix string

	mqtt      MQTTClient
	topics    mqtt.Topics
	arbiter   *Arbiter
	scheduler *Scheduler
	gate      *PollGate
	publisher *StatePublisher

	// Zone registry (immutable after construction).
	zones     map[string]*Zone
	zoneOrder []string
	hotWater  *Zone // nil when hot water is not configured
	hwName    string

	pollInterval time.Duration
	zoneDelay    time.Duration

	// Stats counters (atomic).
	commandsDone atomic.Uint64
	pollsDone    atomic.Uint64
	tasksFailed  atomic.Uint64

	// Shutdown coordination.
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// BridgeID is the topic segment identifying this bridge.
	BridgeID string

	// DiscoveryPrefix is the Home Assistant discovery prefix
	// (typically "homeassistant").
	DiscoveryPrefix string

	// Zones are the configured zones in poll order. Required.
	Zones []*Zone

	// HotWaterZone names the PRT-HW zone that controls hot water.
	// Empty disables hot water handling.
	HotWaterZone string

	// HotWaterName is the friendly name used in discovery.
	HotWaterName string

	// MQTTClient is the broker connection. Required.
	MQTTClient MQTTClient

	// Arbiter owns the UH1 transport. Required.
	Arbiter *Arbiter

	// Publisher publishes state. Required.
	Publisher *StatePublisher

	// PollInterval is the time between poll cycles.
	PollInterval time.Duration

	// ZoneDelay is the pause between thermostats within a poll cycle.
	ZoneDelay time.Duration

	// Logger is optional.
	Logger Logger
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Arbiter == nil {
		return nil, fmt.Errorf("arbiter is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if len(opts.Zones) == 0 {
		return nil, fmt.Errorf("at least one zone is required")
	}

	b := &Bridge{
		bridgeID:        opts.BridgeID,
		discoveryPrefix: opts.DiscoveryPrefix,
		mqtt:            opts.MQTTClient,
		topics:          mqtt.Topics{Bridge: opts.BridgeID},
		arbiter:         opts.Arbiter,
		scheduler:       NewScheduler(),
		gate:            &PollGate{},
		publisher:       opts.Publisher,
		zones:           make(map[string]*Zone, len(opts.Zones)),
		zoneOrder:       make([]string, 0, len(opts.Zones)),
		hwName:          opts.HotWaterName,
		pollInterval:    opts.PollInterval,
		zoneDelay:       opts.ZoneDelay,
		done:            make(chan struct{}),
		logger:          opts.Logger,
	}

	for _, z := range opts.Zones {
		if _, exists := b.zones[z.Name]; exists {
			return nil, fmt.Errorf("duplicate zone %q", z.Name)
		}
		b.zones[z.Name] = z
		b.zoneOrder = append(b.zoneOrder, z.Name)
	}

	if opts.HotWaterZone != "" {
		hw, ok := b.zones[opts.HotWaterZone]
		if !ok {
			return nil, fmt.Errorf("hot water zone %q not configured", opts.HotWaterZone)
		}
		b.hotWater = hw
	}

	return b, nil
}

// Start begins bridge operation: subscribes to command topics,
// publishes Home Assistant discovery, and starts the worker and the
// poll timer. An initial poll is scheduled immediately so retained
// state is populated at startup.
func (b *Bridge) Start(ctx context.Context) error {
	topic := b.topics.AllZoneSets()
	if err := b.mqtt.Subscribe(topic, 1, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", topic)

	if err := b.publishDiscovery(); err != nil {
		b.logError("discovery publish failed", err)
	}

	b.wg.Add(2)
	go b.worker()
	go b.pollLoop()

	b.logInfo("bridge started",
		"bridge_id", b.bridgeID,
		"zones", len(b.zones),
		"hot_water", b.hotWater != nil,
		"poll_interval", b.pollInterval,
	)
	return nil
}

// Stop gracefully shuts down the bridge. The worker finishes its
// current task, drains the queue, and exits.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.scheduler.Close()
		b.wg.Wait()
		b.logInfo("bridge stopped")
	})
}

// enqueueCommand queues a high-priority task.
func (b *Bridge) enqueueCommand(desc string, op Operation, callback func(result any) error) error {
	return b.scheduler.Enqueue(&Task{
		priority: PriorityCommand,
		desc:     desc,
		op:       op,
		callback: callback,
	})
}

// SchedulePoll queues a low-priority poll cycle unless one is already
// queued or executing.
//
// Returns:
//   - bool: true if a poll was queued, false if coalesced away
func (b *Bridge) SchedulePoll() bool {
	if !b.gate.TryStart() {
		b.logDebug("poll skipped, previous poll still pending")
		return false
	}

	err := b.scheduler.Enqueue(&Task{
		priority: PriorityPoll,
		desc:     "poll all zones",
		isPoll:   true,
		op:       b.pollOperation(),
	})
	if err != nil {
		b.gate.Finish()
		return false
	}
	return true
}

// worker consumes the queue one task at a time. It never exits on task
// failure — only when the scheduler is closed and drained.
func (b *Bridge) worker() {
	defer b.wg.Done()

	for {
		task, ok := b.scheduler.Next()
		if !ok {
			return
		}
		b.execute(task)
	}
}

// execute runs one task through the arbiter, fires its callback, and
// routes poll results to the publisher.
func (b *Bridge) execute(t *Task) {
	defer func() {
		if t.isPoll {
			b.gate.Finish()
		}
	}()

	b.logDebug("executing task", "task", t.desc, "poll", t.isPoll)

	result, err := b.runOperation(t)
	if err != nil {
		b.tasksFailed.Add(1)
		b.logError("task failed: "+t.desc, err)
	} else {
		if t.callback != nil {
			b.runCallback(t, result)
		}
		if t.isPoll {
			if results, ok := result.(PollResults); ok {
				b.publisher.PublishPollResults(results)
			}
			b.pollsDone.Add(1)
		} else {
			b.commandsDone.Add(1)
		}
	}

	b.settle(t.priority)
}

// runOperation executes the task's operation through the arbiter with
// panic containment, so a misbehaving driver cannot kill the worker.
func (b *Bridge) runOperation(t *Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return b.arbiter.Execute(t.op)
}

// runCallback fires the task's callback with panic containment.
// Callback failures are logged and never affect the worker.
func (b *Bridge) runCallback(t *Task, result any) {
	defer func() {
		if r := recover(); r != nil {
			b.logWarn("callback panic", "task", t.desc, "panic", r)
		}
	}()
	if err := t.callback(result); err != nil {
		b.logWarn("callback failed", "task", t.desc, "error", err)
	}
}

// settle pauses between tasks to give the bus quiet time. Interrupted
// by shutdown.
func (b *Bridge) settle(p Priority) {
	delay := postCommandSettle
	if p == PriorityPoll {
		delay = postPollSettle
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-b.done:
	}
}

// pollLoop schedules a poll immediately and then on every tick.
// It also emits a periodic queue-depth debug line.
func (b *Bridge) pollLoop() {
	defer b.wg.Done()

	b.SchedulePoll()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.SchedulePoll()
			b.logDebug("queue depth", "depth", b.scheduler.Len())
		case <-b.done:
			return
		}
	}
}

// pollOperation builds the operation that walks every zone under a
// single bus lock span: read each thermostat's DCB, derive its state,
// and pause briefly between thermostats.
func (b *Bridge) pollOperation() Operation {
	return func() (any, error) {
		results := PollResults{Zones: make(map[string]ZoneState, len(b.zoneOrder))}

		for i, name := range b.zoneOrder {
			zone := b.zones[name]
			if err := zone.Stat.ReadDCB(); err != nil {
				return nil, fmt.Errorf("polling %s: %w", name, err)
			}
			results.Zones[name] = zone.State()

			if i < len(b.zoneOrder)-1 {
				time.Sleep(b.zoneDelay)
			}
		}

		if b.hotWater != nil {
			on, err := b.hotWater.Stat.HotWaterOn()
			if err != nil {
				return nil, fmt.Errorf("polling hot water: %w", err)
			}
			results.HotWater = HotWaterOff
			if on {
				results.HotWater = HotWaterOn
			}
		}

		return results, nil
	}
}

// Stats is a snapshot of the bridge's operational counters.
type Stats struct {
	QueueDepth   int    `json:"queue_depth"`
	PollPending  bool   `json:"poll_pending"`
	CommandsDone uint64 `json:"commands_done"`
	PollsDone    uint64 `json:"polls_done"`
	TasksFailed  uint64 `json:"tasks_failed"`
	Retries      uint64 `json:"transport_retries"`
	Reconnects   uint64 `json:"transport_reconnects"`
	Zones        int    `json:"zones"`
}

// Stats returns a snapshot of the bridge's counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		QueueDepth:   b.scheduler.Len(),
		PollPending:  b.gate.Pending(),
		CommandsDone: b.commandsDone.Load(),
		PollsDone:    b.pollsDone.Load(),
		TasksFailed:  b.tasksFailed.Load(),
		Retries:      b.arbiter.Retries(),
		Reconnects:   b.arbiter.Reconnects(),
		Zones:        len(b.zones),
	}
}

// SetLogger sets the bridge's logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, "error", err)
	}
}
