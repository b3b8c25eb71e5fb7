package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/rfxcom2mqtt/backend/internal/api"
	"github.com/rfxcom2mqtt/backend/internal/discovery"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/config"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/logging"
	"github.com/rfxcom2mqtt/backend/internal/infrastructure/mqtt"
	"github.com/rfxcom2mqtt/backend/internal/rfx"
	"github.com/rfxcom2mqtt/backend/internal/store"
)

// Queue sizes for the dispatch channels. Producers drop with a log line
// when a queue is full rather than blocking a transport goroutine.
const queueSize = 16

type shutdownRequest struct {
	restart bool
}

// Controller owns every component of the bridge and the dispatch loop that
// serializes their callbacks.
type Controller struct {
	version  string
	logger   *logging.Logger
	settings *config.Service

	mqttClient *mqtt.Client
	rfxtrx     rfx.Transceiver
	engine     *discovery.Engine
	devices    *store.DeviceStore
	state      *store.StateStore
	server     *api.Server
	scheduler  *cron.Cron

	infoMu     sync.RWMutex
	bridgeInfo discovery.BridgeInfo
	rfxReady   bool

	rfEvents chan *rfx.Event
	mqttMsgs chan mqtt.Message
	tasks    chan func()
	shutdown chan shutdownRequest
	done     chan struct{}
	loopDone chan struct{}
}

// New builds a controller from the current settings snapshot. stream may be
// nil when the admin frontend is disabled.
func New(settings *config.Service, version string, logger *logging.Logger, stream *logging.Stream) *Controller {
	s := settings.Get()
	dataDir := config.DataPath()

	devices := store.NewDeviceStore(s.CacheState, dataDir, logger)
	state := store.NewStateStore(s.CacheState, dataDir, logger)
	mqttClient := mqtt.New(s.MQTT, s.MQTT.BaseTopic, logger)
	rfxtrx := rfx.New(s.Rfxcom, s.Mock, logger)
	engine := discovery.NewEngine(mqttClient, rfxtrx, settings, devices, state, version, logger)

	c := &Controller{
		version:    version,
		logger:     logger,
		settings:   settings,
		mqttClient: mqttClient,
		rfxtrx:     rfxtrx,
		engine:     engine,
		devices:    devices,
		state:      state,
		scheduler:  cron.New(),
		rfEvents:   make(chan *rfx.Event, queueSize),
		mqttMsgs:   make(chan mqtt.Message, queueSize),
		tasks:      make(chan func(), queueSize),
		shutdown:   make(chan shutdownRequest, 1),
		done:       make(chan struct{}),
		loopDone:   make(chan struct{}),
	}

	if s.Frontend.Enabled {
		c.server = api.New(api.Deps{
			Config:     s.Frontend,
			Settings:   settings,
			Devices:    devices,
			State:      state,
			Logger:     logger,
			Stream:     stream,
			Version:    version,
			BridgeInfo: c.BridgeInfo,
			Action:     c.RunAction,
			Rename:     c.Rename,
		})
	}

	return c
}

// Run starts the controller and blocks until the context is cancelled or a
// bridge action asks for shutdown. The returned flag reports whether the
// caller should rebuild the controller from reloaded settings and run again.
func (c *Controller) Run(ctx context.Context) (bool, error) {
	if err := c.Start(ctx); err != nil {
		c.Stop()
		return false, err
	}

	var restart bool
	select {
	case <-ctx.Done():
	case req := <-c.shutdown:
		restart = req.restart
	}

	c.Stop()
	return restart, nil
}

// Start brings up stores, transports, schedules and the dispatch loop.
// An MQTT connect failure is fatal and returned; a transceiver initialise
// failure is logged and the bridge keeps running MQTT-only.
func (c *Controller) Start(ctx context.Context) error {
	c.logger.Info("controller starting")
	c.devices.Start()
	c.state.Start()

	go c.dispatchLoop()

	if err := c.rfxtrx.Initialise(ctx); err != nil {
		c.logger.Error("failed to start transceiver, continuing without RF", "error", err)
	} else {
		c.rfxReady = true
	}

	c.mqttClient.AddListener(c)
	if err := c.mqttClient.Connect(); err != nil {
		c.rfxtrx.Stop()
		return fmt.Errorf("MQTT failed to connect: %w", err)
	}

	c.rfxtrx.SubscribeProtocolsEvent(func(_ string, ev *rfx.Event) {
		select {
		case c.rfEvents <- ev:
		default:
			c.logger.Warn("event queue full, dropping RF event", "id", ev.ID)
		}
	})
	c.rfxtrx.OnStatus(func(info rfx.Info) {
		c.enqueueTask(func() { c.handleStatus(info) })
	})
	c.rfxtrx.OnDisconnect(func() {
		c.enqueueTask(func() { c.logger.Warn("transceiver disconnected") })
	})

	c.scheduleHealthcheck()

	if c.server != nil {
		if err := c.server.Start(ctx); err != nil {
			c.logger.Error("failed to start admin server", "error", err)
		}
	}

	c.logger.Info("started")
	return nil
}

// Stop shuts everything down in order: schedules first, then the dispatch
// loop, then transports, and a final save of both stores.
func (c *Controller) Stop() {
	c.logger.Info("controller stopping")
	c.scheduler.Stop()
	if c.server != nil {
		if err := c.server.Close(); err != nil {
			c.logger.Error("failed to close admin server", "error", err)
		}
	}

	close(c.done)
	<-c.loopDone

	c.mqttClient.Disconnect()
	c.rfxtrx.Stop()
	c.devices.Stop()
	c.state.Stop()
	c.logger.Info("controller stopped")
}

// RequestStop asks the run loop to shut down. Duplicate requests are
// dropped.
func (c *Controller) RequestStop(restart bool) {
	select {
	case c.shutdown <- shutdownRequest{restart: restart}:
	default:
	}
}

// BridgeInfo returns the current bridge identity snapshot.
func (c *Controller) BridgeInfo() discovery.BridgeInfo {
	c.infoMu.RLock()
	defer c.infoMu.RUnlock()
	return c.bridgeInfo
}

// SubscribeTopic implements mqtt.EventListener by delegating to the
// discovery engine's filters; messages themselves go through the dispatch
// loop first.
func (c *Controller) SubscribeTopic() []string {
	return c.engine.SubscribeTopic()
}

// OnMQTTMessage implements mqtt.EventListener. Called from the MQTT client
// goroutine; the message is queued for the dispatch loop.
func (c *Controller) OnMQTTMessage(msg mqtt.Message) {
	select {
	case c.mqttMsgs <- msg:
	default:
		c.logger.Warn("message queue full, dropping MQTT message", "topic", msg.Topic)
	}
}

func (c *Controller) enqueueTask(task func()) {
	select {
	case c.tasks <- task:
	default:
		c.logger.Warn("task queue full, dropping task")
	}
}

// dispatchLoop serializes all inbound work. Only this goroutine touches the
// discovery engine.
func (c *Controller) dispatchLoop() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.done:
			return
		case ev := <-c.rfEvents:
			c.handleRFEvent(ev)
		case msg := <-c.mqttMsgs:
			c.engine.OnMQTTMessage(msg)
		case task := <-c.tasks:
			task()
		}
	}
}

// handleRFEvent publishes the raw event payload on the device state topic
// and hands the event to the discovery engine.
func (c *Controller) handleRFEvent(ev *rfx.Event) {
	c.logger.Info("receive from rfxcom", "id", ev.ID, "type", ev.Type)

	settings := c.settings.Get()
	deviceConf := settings.DeviceConfig(ev.DeviceID())
	entity := discovery.DeriveEntity(ev.DeviceID(), ev.SubTypeValue, ev.UnitCode, ev.Group, deviceConf)

	payload, err := json.MarshalIndent(ev.Payload(), "", "  ")
	if err != nil {
		c.logger.Error("failed to encode event payload", "id", ev.ID, "error", err)
		return
	}
	topic := mqtt.TopicDevices + "/" + entity.Topic
	opts := mqtt.PublishOptions{QoS: settings.MQTT.QoS, Retain: settings.MQTT.Retain}
	if err := c.mqttClient.Publish(topic, payload, opts); err != nil {
		c.logger.Error("failed to publish device state", "topic", topic, "error", err)
	}

	c.engine.HandleEvent(ev)
}

// handleStatus refreshes the bridge info singleton and republishes the info
// document plus the bridge discovery entities.
func (c *Controller) handleStatus(info rfx.Info) {
	c.infoMu.Lock()
	c.bridgeInfo.Coordinator = info
	c.bridgeInfo.Version = c.version
	c.bridgeInfo.LogLevel = c.logger.Level()
	snapshot := c.bridgeInfo
	c.infoMu.Unlock()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Error("failed to encode bridge info", "error", err)
		return
	}
	if err := c.mqttClient.Publish(mqtt.TopicInfo, payload, mqtt.PublishOptions{QoS: 1, Retain: true}); err != nil {
		c.logger.Error("failed to publish bridge info", "error", err)
	}

	c.engine.PublishBridgeDiscovery(&snapshot)
}

// scheduleHealthcheck probes the transceiver on the configured cron
// schedule and publishes the result as bridge availability. An offline
// probe shuts the bridge down so a supervisor can restart it. Not
// scheduled when the transceiver never came up: the bridge is already
// running in its MQTT-only degraded mode.
func (c *Controller) scheduleHealthcheck() {
	s := c.settings.Get()
	if !s.Healthcheck.Enabled || !c.rfxReady {
		return
	}
	_, err := c.scheduler.AddFunc(s.Healthcheck.Cron, func() {
		c.enqueueTask(func() {
			c.logger.Debug("healthcheck")
			c.rfxtrx.GetStatus(func(status string) {
				c.mqttClient.PublishState(status)
				if status == "offline" {
					c.RequestStop(false)
				}
			})
		})
	})
	if err != nil {
		c.logger.Error("invalid healthcheck cron expression", "cron", s.Healthcheck.Cron, "error", err)
		return
	}
	c.scheduler.Start()
}

// RunAction dispatches an admin action to the bridge or to a device.
func (c *Controller) RunAction(action api.Action) error {
	switch action.Type {
	case "bridge":
		switch action.Action {
		case "restart":
			c.RequestStop(true)
		case "stop":
			c.RequestStop(false)
		default:
			return fmt.Errorf("unknown bridge action %q", action.Action)
		}
		return nil
	case "device":
		return c.runDeviceAction(action.DeviceID, action.EntityID, action.Action)
	}
	return fmt.Errorf("unknown action type %q", action.Type)
}

// runDeviceAction replays an admin device command through the same path an
// MQTT command takes, preserving serialization.
func (c *Controller) runDeviceAction(deviceID, entityID, action string) error {
	if !c.devices.Exists(deviceID) {
		return fmt.Errorf("unknown device %q", deviceID)
	}
	rec := c.devices.Get(deviceID)
	msg := mqtt.Message{
		Topic:   c.commandTopic(rec, entityID),
		Payload: []byte(action),
	}
	select {
	case c.mqttMsgs <- msg:
		return nil
	default:
		return fmt.Errorf("message queue full")
	}
}

// commandTopic rebuilds the command topic for an entity of a device from
// its switch descriptor.
func (c *Controller) commandTopic(rec store.DeviceRecord, entityID string) string {
	t := c.mqttClient.Topics()
	if sw, ok := rec.Switches[entityID]; ok && sw.UnitCode != "" && !sw.Group {
		return t.CommandSet(rec.Type, rec.SubTypeValue, rec.ID+"/"+sw.UnitCode)
	}
	return t.CommandSet(rec.Type, rec.SubTypeValue, rec.ID)
}

// Rename applies a display-name override for a device, or for one unit's
// switch when unitCode is positive. The override is persisted to settings,
// applied to the stored record and the discovery documents are republished
// so the consumer picks the new name up immediately.
func (c *Controller) Rename(deviceID, name string, unitCode int) error {
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !c.devices.Exists(deviceID) {
		return fmt.Errorf("unknown device %q", deviceID)
	}

	override := config.DeviceConfig{ID: deviceID}
	if unitCode > 0 {
		override.Units = []config.UnitConfig{{UnitCode: unitCode, FriendlyName: name}}
	} else {
		override.FriendlyName = name
	}
	if err := c.settings.ApplyDeviceOverride(override); err != nil {
		return err
	}

	rec := c.devices.Get(deviceID)
	if unitCode > 0 {
		code := strconv.Itoa(unitCode)
		for id, sw := range rec.Switches {
			if sw.UnitCode == code && !sw.Group {
				sw.Name = name
				rec.Switches[id] = sw
			}
		}
	} else {
		rec.Name = name
	}
	rec = c.devices.Set(deviceID, rec)

	c.engine.PublishDeviceDiscovery(&rec, rec.ID)
	return nil
}
