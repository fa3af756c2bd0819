// Package gateway hosts the server side of the realtime boundary: the
// websocket surface, the moderation and fanout pipeline, and the REST
// handlers for history, receipts and search. It orchestrates without
// containing domain rules.
package gateway

import (
	"context"
	"embed"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trekconnect/contract"
	"trekconnect/domain"
	"trekconnect/domain/event"
	"trekconnect/gateway/workers"
	"trekconnect/moderation"
	"trekconnect/repositories"
)

//go:embed censored/*
var censoredFolder embed.FS

type Hub struct {
	mu              sync.Mutex
	log             *slog.Logger
	numWorkers      int
	permanentSinks  []contract.EventSink
	supervisor      contract.ISupervisor
	registry        contract.IRegistry
	// commands is sharded by room: every command for a given room
	// lands on the same shard and therefore on the same intake worker,
	// which preserves per-room pipeline order with several workers.
	commands        []chan domain.Command
	rawEvents       chan event.DomainEvent
	domainEvents    chan event.DomainEvent
	messages        repositories.IMessageRepository
	search          *repositories.SearchIndex
	sinkTimeout     time.Duration
	charReplacement rune
	healthInterval  time.Duration
}

func NewHub(log *slog.Logger, supervisor *workers.Supervisor,
	registry *Registry, messages repositories.IMessageRepository,
	search *repositories.SearchIndex, numWorkers, bufferSize int,
	sinkTimeout time.Duration, charReplacement rune,
	healthInterval time.Duration) *Hub {
	if numWorkers < 1 {
		numWorkers = 1
	}
	commands := make([]chan domain.Command, numWorkers)
	for i := range commands {
		commands[i] = make(chan domain.Command, bufferSize)
	}
	return &Hub{
		log:             log,
		numWorkers:      numWorkers,
		permanentSinks:  nil,
		supervisor:      supervisor,
		registry:        registry,
		commands:        commands,
		rawEvents:       make(chan event.DomainEvent, bufferSize),
		domainEvents:    make(chan event.DomainEvent, bufferSize),
		messages:        messages,
		search:          search,
		sinkTimeout:     sinkTimeout,
		charReplacement: charReplacement,
		healthInterval:  healthInterval,
	}
}

// Add registers sinks that receive every event regardless of room.
// Must be called before Start.
func (h *Hub) Add(sinks ...contract.EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.permanentSinks = append(h.permanentSinks, sinks...)
}

// Dispatch hands a command to the pipeline without blocking the caller.
// A full shard drops the command; the producer is told via the log only.
func (h *Hub) Dispatch(cmd domain.Command) {
	shard := h.commands[shardFor(cmd.Room(), len(h.commands))]
	select {
	case shard <- cmd:
	default:
		h.log.Warn(fmt.Sprintf("Command channel full for room %s, dropping command", cmd.Room()))
	}
}

func shardFor(roomID domain.RoomID, shards int) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(roomID))
	return int(hash.Sum32() % uint32(shards))
}

// Subscribe registers a connected participant in a room.
func (h *Hub) Subscribe(participantID domain.ParticipantID, roomID domain.RoomID, sink contract.EventSink) {
	h.registry.Subscribe(participantID, roomID, sink)
}

// Unsubscribe removes a participant from a single room.
func (h *Hub) Unsubscribe(participantID domain.ParticipantID, roomID domain.RoomID) {
	h.registry.Unsubscribe(participantID, roomID)
}

// Drop removes a disconnected participant everywhere.
func (h *Hub) Drop(participantID domain.ParticipantID) {
	h.registry.Drop(participantID)
}

// History pages through a room's stored messages, newest first.
func (h *Hub) History(roomID domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	return h.messages.GetMessages(roomID, cursor)
}

// Lookup resolves a stored message by id.
func (h *Hub) Lookup(messageID uuid.UUID) (domain.Message, error) {
	return h.messages.GetMessage(messageID)
}

// Search runs a full-text query scoped to one room.
func (h *Hub) Search(ctx context.Context, roomID domain.RoomID, terms string, limit int) ([]repositories.SearchHit, error) {
	return h.search.Search(ctx, roomID, terms, limit)
}

// Start prepares all pipeline components and runs the supervisor until
// the context is canceled. Heavy setup (loading dictionaries, building
// the Aho-Corasick automaton) happens before any lock is taken.
func (h *Hub) Start(ctx context.Context) error {
	intakeWorkers := h.prepareIntakeWorkers()

	moderationWorker, err := h.prepareModeration("censored", h.charReplacement)
	if err != nil {
		return err
	}

	fanoutWorker := h.preparePipeline()
	healthWorker := workers.NewHealthWorker(h.log, h.healthInterval, 90, 90)

	h.mu.Lock()
	h.supervisor.Add(moderationWorker)
	h.supervisor.Add(fanoutWorker)
	h.supervisor.Add(healthWorker)
	for _, w := range intakeWorkers {
		h.supervisor.Add(w)
	}
	h.mu.Unlock()

	h.log.Info("Starting hub and all supervised workers")
	h.supervisor.Run(ctx)
	return nil
}

func (h *Hub) prepareIntakeWorkers() []contract.Worker {
	var res []contract.Worker
	for _, shard := range h.commands {
		res = append(res, workers.NewIntakeWorker(h.messages, shard, h.rawEvents, h.domainEvents, h.log))
	}
	return res
}

// prepareModeration loads censored words and builds the Aho-Corasick automaton.
func (h *Hub) prepareModeration(path string, charReplacement rune) (contract.Worker, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll(path)
	if err != nil {
		return nil, err
	}

	h.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	h.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement, h.log)
	if err != nil {
		return nil, err
	}

	return workers.NewModerationWorker(moderator, h.rawEvents, h.domainEvents, h.log), nil
}

// preparePipeline builds the fanout stage over the permanent sinks
// registered so far.
func (h *Hub) preparePipeline() contract.Worker {
	h.mu.Lock()
	sinks := append([]contract.EventSink{}, h.permanentSinks...)
	h.mu.Unlock()

	return workers.NewEventFanout(h.log, sinks, h.registry, h.domainEvents, h.sinkTimeout)
}

// Stop initiates a graceful shutdown by canceling the supervision
// context. Workers drain their current event and exit.
func (h *Hub) Stop() {
	h.log.Info("Requesting hub shutdown")
	h.supervisor.Stop()
}
