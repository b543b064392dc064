package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// WebSocket message types
type MessageType string

const (
	// Outgoing message types (server to client)
	MessageTypeStatus MessageType = "status"
	MessageTypeScene  MessageType = "scene"
	MessageTypeError  MessageType = "error"
	MessageTypeAck    MessageType = "ack"
	MessageTypePing   MessageType = "ping"

	// Incoming message types (client to server)
	MessageTypeGetStatus  MessageType = "get_status"
	MessageTypeGetScene   MessageType = "get_scene"
	MessageTypeStop       MessageType = "stop"
	MessageTypeSetPart    MessageType = "set_part"
	MessageTypeResetPart  MessageType = "reset_part"
	MessageTypeResetScene MessageType = "reset_scene"
	MessageTypeSetOptions MessageType = "set_options"
)

// Base WebSocket message structure
type WSMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"` // For correlating responses
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Outgoing message data structures

// StatusData describes the session and the host process.
type StatusData struct {
	State     string          `json:"state"`
	Frame     int             `json:"frame"`
	Unit      string          `json:"unit,omitempty"`
	LastError string          `json:"last_error,omitempty"`
	Parts     int             `json:"parts"`
	LiveUnits int             `json:"live_units"`
	Process   ProcessStats    `json:"process"`
	Scene     json.RawMessage `json:"scene,omitempty"` // Only for clients that asked for it
}

type ProcessStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

// Incoming message data structures

type SetPartData struct {
	Key      string  `json:"key"`
	Property string  `json:"property"` // x, y, rotation (degrees) or scale
	Value    float64 `json:"value"`
}

type ResetPartData struct {
	Key string `json:"key"`
}

// Client options for controlling what status broadcasts include
type ClientOptions struct {
	IncludeScene bool `json:"include_scene"`
}

// Controller is the part of the host the API may drive. Its methods are
// only ever called from the goroutine that drains Commands.
type Controller interface {
	Status() StatusData
	Stop()
	SceneDocument() (json.RawMessage, error)
	SetPart(key, property string, value float64) error
	ResetPart(key string) error
	ResetScene()
}

const (
	commandPending int32 = iota
	commandRunning
	commandAbandoned
)

// Command is a unit of work for the host goroutine.
type Command struct {
	fn    func(Controller) (interface{}, error)
	reply chan commandResult
	// state moves from pending to running when the host picks the command
	// up, or to abandoned when the requester stopped waiting.
	state *atomic.Int32
}

type commandResult struct {
	data interface{}
	err  error
}

// Execute runs the command against c and hands the result back to the
// waiting connection. A command whose requester already gave up is
// skipped, so a request answered with ErrHostBusy never takes effect.
func (cmd Command) Execute(c Controller) {
	if cmd.fn == nil || cmd.state == nil || !cmd.state.CompareAndSwap(commandPending, commandRunning) {
		return
	}
	data, err := cmd.fn(c)
	cmd.reply <- commandResult{data: data, err: err}
}

// API struct for WebSocket server
type API struct {
	clients       map[*WSClient]bool
	clientOptions map[*WSClient]*ClientOptions
	broadcast     chan WSMessage
	register      chan *WSClient
	unregister    chan *WSClient
	handlers      map[MessageType]MessageHandler
	commands      chan Command
	setOptions    chan clientOptionsUpdate
	done          chan struct{}

	log            *slog.Logger
	proc           *process.Process
	procMu         sync.Mutex
	statusInterval time.Duration
	replyTimeout   time.Duration
}

type clientOptionsUpdate struct {
	client  *WSClient
	options ClientOptions
}

// WebSocket client representation
type WSClient struct {
	conn WSConnection
	send chan WSMessage
	api  *API
	id   string
}

// Interface for WebSocket connection (for easier testing)
type WSConnection interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Message handler function type
type MessageHandler func(*WSClient, WSMessage) error
