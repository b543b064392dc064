// Package api serves a WebSocket control surface for a running studio.
// Connections never touch studio state directly: every request becomes a
// Command that the host goroutine executes between frames.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/process"
)

var (
	ErrHostBusy = errors.New("api: host did not answer in time")
	ErrClosed   = errors.New("api: server closed")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Local tool; any origin may connect
		return true
	},
}

const pingInterval = 54 * time.Second

var clientSeq atomic.Uint64

type Options struct {
	Logger *slog.Logger
	// StatusInterval is the period of status broadcasts; zero disables them.
	StatusInterval time.Duration
	// ReplyTimeout bounds how long a request waits for the host.
	ReplyTimeout time.Duration
}

// NewAPI creates a new API instance
func NewAPI(opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = 2 * time.Second
	}
	api := &API{
		clients:        make(map[*WSClient]bool),
		clientOptions:  make(map[*WSClient]*ClientOptions),
		broadcast:      make(chan WSMessage, 256),
		register:       make(chan *WSClient),
		unregister:     make(chan *WSClient),
		handlers:       make(map[MessageType]MessageHandler),
		commands:       make(chan Command, 16),
		setOptions:     make(chan clientOptionsUpdate),
		done:           make(chan struct{}),
		log:            opts.Logger.With("component", "api"),
		statusInterval: opts.StatusInterval,
		replyTimeout:   opts.ReplyTimeout,
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		api.proc = p
	} else {
		api.log.Warn("process stats unavailable", "error", err)
	}

	// Register message handlers
	api.registerHandlers()

	return api
}

// Commands delivers requests to the host. The host must drain it from the
// goroutine that owns the Controller.
func (api *API) Commands() <-chan Command { return api.commands }

// Handler returns the HTTP handler serving /ws.
func (api *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", api.handleWebSocket)
	return mux
}

// Serve runs the hub and listens on addr until ctx is cancelled.
func (api *API) Serve(ctx context.Context, addr string) error {
	go api.Run(ctx)

	srv := &http.Server{Addr: addr, Handler: api.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	api.log.Info("websocket server starting", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("websocket server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Run handles the main WebSocket hub logic until ctx is cancelled.
func (api *API) Run(ctx context.Context) {
	defer close(api.done)

	if api.statusInterval > 0 {
		go api.broadcastStatus(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			// Pumps notice the closed connections and api.done
			for client := range api.clients {
				client.conn.Close()
			}
			return

		case client := <-api.register:
			api.clients[client] = true
			api.clientOptions[client] = &ClientOptions{}

			// Send acknowledgment
			ackMsg := WSMessage{
				Type:      MessageTypeAck,
				Data:      "Connected to duck studio",
				Timestamp: time.Now(),
			}
			select {
			case client.send <- ackMsg:
			default:
				client.conn.Close()
			}

			api.log.Info("client connected", "client", client.id)

		case client := <-api.unregister:
			if _, ok := api.clients[client]; ok {
				delete(api.clients, client)
				delete(api.clientOptions, client)
				close(client.send)
				api.log.Info("client disconnected", "client", client.id)
			}

		case update := <-api.setOptions:
			if opts, ok := api.clientOptions[update.client]; ok {
				*opts = update.options
			}

		case message := <-api.broadcast:
			for client := range api.clients {
				select {
				case client.send <- api.tailor(client, message):
				default:
					// Slow reader; its readPump unregisters it
					client.conn.Close()
				}
			}
		}
	}
}

// tailor strips the scene from status broadcasts for clients that did not
// ask for it.
func (api *API) tailor(client *WSClient, message WSMessage) WSMessage {
	status, ok := message.Data.(StatusData)
	if !ok || api.clientOptions[client].IncludeScene {
		return message
	}
	status.Scene = nil
	message.Data = status
	return message
}

// broadcastStatus periodically asks the host for its status and fans it out
func (api *API) broadcastStatus(ctx context.Context) {
	ticker := time.NewTicker(api.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		data, err := api.exec(func(c Controller) (interface{}, error) {
			status := c.Status()
			doc, err := c.SceneDocument()
			if err == nil {
				status.Scene = doc
			}
			return status, nil
		})
		if err != nil {
			api.log.Debug("status broadcast skipped", "error", err)
			continue
		}
		status := data.(StatusData)
		status.Process = api.processStats()

		select {
		case api.broadcast <- WSMessage{Type: MessageTypeStatus, Data: status, Timestamp: time.Now()}:
		default:
			// Channel is full, skip this round
		}
	}
}

func (api *API) processStats() ProcessStats {
	var stats ProcessStats
	if api.proc == nil {
		return stats
	}
	api.procMu.Lock()
	defer api.procMu.Unlock()
	if mem, err := api.proc.MemoryInfo(); err == nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := api.proc.Percent(0); err == nil {
		stats.CPUPercent = cpu
	}
	return stats
}

// exec hands fn to the host goroutine and waits for its result. When the
// reply timeout expires before the host picks the command up, the command
// is abandoned and will not run.
func (api *API) exec(fn func(Controller) (interface{}, error)) (interface{}, error) {
	cmd := Command{fn: fn, reply: make(chan commandResult, 1), state: new(atomic.Int32)}
	timer := time.NewTimer(api.replyTimeout)
	defer timer.Stop()

	select {
	case api.commands <- cmd:
	case <-timer.C:
		return nil, ErrHostBusy
	case <-api.done:
		return nil, ErrClosed
	}

	select {
	case res := <-cmd.reply:
		return res.data, res.err
	case <-timer.C:
		if cmd.state.CompareAndSwap(commandPending, commandAbandoned) {
			return nil, ErrHostBusy
		}
	case <-api.done:
		if cmd.state.CompareAndSwap(commandPending, commandAbandoned) {
			return nil, ErrClosed
		}
	}
	// the host is already running it
	res := <-cmd.reply
	return res.data, res.err
}

func (api *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		api.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan WSMessage, 256),
		api:  api,
		id:   fmt.Sprintf("client-%d", clientSeq.Add(1)),
	}

	select {
	case api.register <- client:
	case <-api.done:
		conn.Close()
		return
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// writePump pumps messages from the hub to the websocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.api.log.Debug("write failed", "client", c.id, "error", err)
				return
			}

		case <-c.api.done:
			return

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := c.conn.WriteJSON(WSMessage{
				Type:      MessageTypePing,
				Timestamp: time.Now(),
			}); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *WSClient) readPump() {
	defer func() {
		select {
		case c.api.unregister <- c:
		case <-c.api.done:
		}
		c.conn.Close()
	}()

	for {
		var message WSMessage
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.api.log.Warn("websocket error", "client", c.id, "error", err)
			}
			break
		}

		// Set timestamp if not provided
		if message.Timestamp.IsZero() {
			message.Timestamp = time.Now()
		}

		// Handle the message
		if err := c.handleMessage(message); err != nil {
			c.reply(WSMessage{
				Type:      MessageTypeError,
				RequestID: message.RequestID,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
		}
	}
}

// reply queues a message for this client, dropping it if the buffer is full.
// Only called from readPump, which owns the channel until it unregisters.
func (c *WSClient) reply(message WSMessage) {
	select {
	case c.send <- message:
	default:
	}
}

// handleMessage processes incoming messages from clients
func (c *WSClient) handleMessage(message WSMessage) error {
	handler, exists := c.api.handlers[message.Type]
	if !exists {
		return fmt.Errorf("unknown message type: %s", message.Type)
	}

	return handler(c, message)
}

// registerHandlers registers all message handlers
func (api *API) registerHandlers() {
	api.handlers[MessageTypeGetStatus] = api.handleGetStatus
	api.handlers[MessageTypeGetScene] = api.handleGetScene
	api.handlers[MessageTypeStop] = api.handleStop
	api.handlers[MessageTypeSetOptions] = api.handleSetOptions

	// Scene editing handlers
	api.handlers[MessageTypeSetPart] = api.handleSetPart
	api.handlers[MessageTypeResetPart] = api.handleResetPart
	api.handlers[MessageTypeResetScene] = api.handleResetScene
}

func ack(message WSMessage, text string) WSMessage {
	return WSMessage{
		Type:      MessageTypeAck,
		RequestID: message.RequestID,
		Data:      text,
		Timestamp: time.Now(),
	}
}

func (api *API) handleGetStatus(client *WSClient, message WSMessage) error {
	data, err := api.exec(func(c Controller) (interface{}, error) {
		return c.Status(), nil
	})
	if err != nil {
		return err
	}
	status := data.(StatusData)
	status.Process = api.processStats()

	client.reply(WSMessage{
		Type:      MessageTypeStatus,
		RequestID: message.RequestID,
		Data:      status,
		Timestamp: time.Now(),
	})
	return nil
}

func (api *API) handleGetScene(client *WSClient, message WSMessage) error {
	data, err := api.exec(func(c Controller) (interface{}, error) {
		return c.SceneDocument()
	})
	if err != nil {
		return err
	}

	client.reply(WSMessage{
		Type:      MessageTypeScene,
		RequestID: message.RequestID,
		Data:      data.(json.RawMessage),
		Timestamp: time.Now(),
	})
	return nil
}

func (api *API) handleStop(client *WSClient, message WSMessage) error {
	if _, err := api.exec(func(c Controller) (interface{}, error) {
		c.Stop()
		return nil, nil
	}); err != nil {
		return err
	}

	client.reply(ack(message, "Run stopped"))
	return nil
}

func (api *API) handleSetOptions(client *WSClient, message WSMessage) error {
	var data ClientOptions
	if err := api.parseMessageData(message.Data, &data); err != nil {
		return err
	}

	select {
	case api.setOptions <- clientOptionsUpdate{client: client, options: data}:
	case <-api.done:
		return ErrClosed
	}

	client.reply(ack(message, "Options updated"))
	return nil
}

func (api *API) handleSetPart(client *WSClient, message WSMessage) error {
	var data SetPartData
	if err := api.parseMessageData(message.Data, &data); err != nil {
		return err
	}

	if _, err := api.exec(func(c Controller) (interface{}, error) {
		return nil, c.SetPart(data.Key, data.Property, data.Value)
	}); err != nil {
		return err
	}

	client.reply(ack(message, fmt.Sprintf("Set %s.%s", data.Key, data.Property)))
	return nil
}

func (api *API) handleResetPart(client *WSClient, message WSMessage) error {
	var data ResetPartData
	if err := api.parseMessageData(message.Data, &data); err != nil {
		return err
	}

	if _, err := api.exec(func(c Controller) (interface{}, error) {
		return nil, c.ResetPart(data.Key)
	}); err != nil {
		return err
	}

	client.reply(ack(message, fmt.Sprintf("Reset %s", data.Key)))
	return nil
}

func (api *API) handleResetScene(client *WSClient, message WSMessage) error {
	if _, err := api.exec(func(c Controller) (interface{}, error) {
		c.ResetScene()
		return nil, nil
	}); err != nil {
		return err
	}

	client.reply(ack(message, "Scene reset"))
	return nil
}

// parseMessageData parses message data into the specified struct
func (api *API) parseMessageData(data interface{}, target interface{}) error {
	// Convert to JSON and back to ensure proper type conversion
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %v", err)
	}

	return nil
}
