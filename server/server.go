package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/voidrun/dronewars/bot"
	"github.com/voidrun/dronewars/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	SendMessageAction = "room.message"
	JoinRoomAction    = "room.join"
	SoloRoomAction    = "room.solo"
	RoomJoinedAction  = "room.joined"

	GameActionAction  = "game.action"
	GameCommitAction  = "game.commitment"
	GameStateAction   = "game.state"
	GameEventAction   = "game.event"
	GameErrorAction   = "game.error"
	GameStartedAction = "game.started"
	GameOverAction    = "game.over"

	welcomeMessage = "%s joined the room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Message struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Target string          `json:"target,omitempty"`
	Sender string          `json:"sender,omitempty"`
}

func newMessage(typ string, data any) *Message {
	raw, _ := json.Marshal(data)
	return &Message{Type: typ, Data: raw}
}

func (message *Message) encode() []byte {
	data, _ := json.Marshal(message)
	return data
}

// WireAction is the client-side form of an engine action; ids travel as
// ULID strings.
type WireAction struct {
	Type    string          `json:"type"`
	Drone   string          `json:"drone,omitempty"`
	Deploy  string          `json:"deploy,omitempty"`
	Lane    game.Lane       `json:"lane,omitempty"`
	Card    string          `json:"card,omitempty"`
	Target  *game.TargetRef `json:"target,omitempty"`
	Section string          `json:"section,omitempty"`
	Amount  int             `json:"amount,omitempty"`
}

func (w *WireAction) toAction(player game.PlayerID) (game.Action, error) {
	typ, ok := game.ActionTypeFromString(w.Type)
	if !ok {
		return game.Action{}, fmt.Errorf("unknown action type %q", w.Type)
	}
	a := game.Action{
		Type:    typ,
		Player:  player,
		Deploy:  w.Deploy,
		Lane:    w.Lane,
		Target:  w.Target,
		Section: w.Section,
		Amount:  w.Amount,
	}
	if w.Drone != "" {
		id, err := ulid.Parse(w.Drone)
		if err != nil {
			return game.Action{}, fmt.Errorf("bad drone id: %w", err)
		}
		a.Drone = id
	}
	if w.Card != "" {
		id, err := ulid.Parse(w.Card)
		if err != nil {
			return game.Action{}, fmt.Errorf("bad card id: %w", err)
		}
		a.Card = id
	}
	return a, nil
}

type WireCommitment struct {
	Phase   game.TurnPhase         `json:"phase"`
	Payload game.CommitmentPayload `json:"payload"`
}

type WireError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func wireError(err error) *Message {
	return newMessage(GameErrorAction, &WireError{
		Code:   game.CodeOf(err).String(),
		Reason: err.Error(),
	})
}

// Room hosts exactly one match. The first seated client is the host side,
// the second the guest; a solo room seats a bot as guest.
type Room struct {
	Name       string
	server     *Server
	clients    []*Client
	seats      map[game.PlayerID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	events     chan game.Event
	close      chan struct{}
	mutex      sync.Mutex
	match      *game.Match
	bot        *bot.Policy
	solo       bool
	running    bool
	log        logrus.FieldLogger
}

func NewRoom(name string, server *Server, solo bool) *Room {
	return &Room{
		Name:       name,
		server:     server,
		clients:    make([]*Client, 0),
		seats:      map[game.PlayerID]*Client{},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message),
		events:     make(chan game.Event, 64),
		close:      make(chan struct{}, 1),
		solo:       solo,
		log:        server.log.WithField("room", name),
	}
}

func (room *Room) Run() {
	ch := room.server.broker.Subscribe(context.Background(), room.Name)
	go room.subscribeToRoomMessages(ch)
	for {
		select {
		case client := <-room.register:
			room.registerClientInRoom(client)
		case client := <-room.unregister:
			room.unregisterClientInRoom(client)
		case message := <-room.broadcast:
			room.publishRoomMessage(message.encode())
		case event := <-room.events:
			room.handleMatchEvent(&event)
		case <-room.close:
			room.server.broker.Unsubscribe(context.Background(), ch, room.Name)
			if room.match != nil {
				room.match.Stop()
			}
			if room.bot != nil {
				room.bot.Stop()
			}
			return
		}
	}
}

func (room *Room) Close() {
	select {
	case room.close <- struct{}{}:
	default:
	}
}

func (room *Room) registerClientInRoom(client *Client) {
	room.notifyClientJoined(client)
	room.mutex.Lock()
	room.clients = append(room.clients, client)
	room.mutex.Unlock()
	room.trySeat(client)
	room.tryStart()
}

func (room *Room) trySeat(client *Client) {
	if room.running || len(room.seats) >= 2 {
		return
	}
	room.seats[game.PlayerID(client.Name)] = client
}

// tryStart spins up the match once both seats are filled. A solo room
// fills the guest seat with the bot policy immediately.
func (room *Room) tryStart() {
	if room.running {
		return
	}
	var host, guest game.PlayerID
	switch {
	case room.solo && len(room.seats) == 1:
		for id := range room.seats {
			host = id
		}
		guest = game.PlayerID("drone-os")
	case len(room.seats) == 2:
		for _, c := range room.clients {
			id := game.PlayerID(c.Name)
			if _, ok := room.seats[id]; !ok {
				continue
			}
			if host == "" {
				host = id
			} else if guest == "" && id != host {
				guest = id
			}
		}
	default:
		return
	}
	if host == "" || guest == "" {
		return
	}

	m := game.NewMatch(host, guest,
		game.WithInterceptTimeout(room.server.cfg.InterceptTimeout),
		game.WithLogger(room.log),
	)
	m.On(game.AllEvents, func(e *game.Event) {
		select {
		case room.events <- *e:
		default:
			room.log.WithField("event", e.Type.String()).Warn("event queue full, dropping")
		}
	})
	room.match = m
	if room.solo {
		room.bot = bot.New(guest, m, room.log)
	}
	room.running = true
	go m.Run()
	if room.bot != nil {
		go room.bot.Run()
	}
	room.log.WithFields(logrus.Fields{"host": host, "guest": guest}).Info("match started")
	room.broadcastToClientsInRoom(newMessage(GameStartedAction, map[string]string{
		"host":  string(host),
		"guest": string(guest),
	}).encode())
	room.sendSnapshots()
}

func (room *Room) handleMatchEvent(event *game.Event) {
	room.broadcastToClientsInRoom(newMessage(GameEventAction, event).encode())
	room.sendSnapshots()
	if event.Type == game.EventMatchOver {
		room.finishMatch(event.Player)
	}
}

// sendSnapshots pushes each seat its own view; hidden information never
// crosses seats, so these go directly to the client, not through the
// broker.
func (room *Room) sendSnapshots() {
	for id, client := range room.seats {
		snap, err := room.match.Snapshot(id)
		if err != nil {
			continue
		}
		client.send <- newMessage(GameStateAction, snap).encode()
	}
}

func (room *Room) finishMatch(winner game.PlayerID) {
	room.running = false
	_, guest := room.matchSeats()
	if err := room.server.repository.RecordMatchResult(&MatchResult{
		MatchId:    room.match.ID.String(),
		Host:       string(room.match.Host),
		Guest:      string(guest),
		Winner:     string(winner),
		Rounds:     room.matchRounds(),
		FinishedAt: time.Now(),
	}); err != nil {
		room.log.WithError(err).Error("recording match result")
	}
	room.broadcastToClientsInRoom(newMessage(GameOverAction, map[string]string{"winner": string(winner)}).encode())
	room.match.Stop()
	if room.bot != nil {
		room.bot.Stop()
	}
}

func (room *Room) matchSeats() (game.PlayerID, game.PlayerID) {
	return room.match.Host, room.match.Guest
}

func (room *Room) matchRounds() int {
	snap, err := room.match.Snapshot(room.match.Host)
	if err != nil {
		return 0
	}
	return snap.Round
}

func (room *Room) unregisterClientInRoom(client *Client) {
	room.mutex.Lock()
	for i, c := range room.clients {
		if c == client {
			room.clients = append(room.clients[:i], room.clients[i+1:]...)
			break
		}
	}
	remaining := len(room.clients)
	room.mutex.Unlock()

	if seat := game.PlayerID(client.Name); room.seats[seat] != nil {
		delete(room.seats, seat)
		if room.running {
			// A seated peer vanishing is fatal to the match; surviving
			// clients hear why.
			room.log.WithField("player", client.Name).Warn("seated player disconnected")
			room.broadcastToClientsInRoom(wireError(
				&game.RuleError{Code: game.CodeTransportFailure, Reason: fmt.Sprintf("%s disconnected", client.Name)},
			).encode())
			room.running = false
			room.match.Stop()
			if room.bot != nil {
				room.bot.Stop()
			}
		}
	}
	if remaining == 0 {
		room.server.removeRoom(room)
		room.Close()
	}
}

func (room *Room) broadcastToClientsInRoom(message []byte) {
	room.mutex.Lock()
	defer room.mutex.Unlock()
	for _, client := range room.clients {
		client.send <- message
	}
}

func (room *Room) publishRoomMessage(message []byte) {
	if err := room.server.broker.Publish(context.Background(), room.Name, message); err != nil {
		room.log.WithError(err).Error("publishing room message")
	}
}

func (room *Room) subscribeToRoomMessages(ch *Subscriber) {
	for msg := range ch.Channel {
		room.broadcastToClientsInRoom(msg)
	}
}

func (room *Room) notifyClientJoined(client *Client) {
	room.publishRoomMessage(newMessage(SendMessageAction, fmt.Sprintf(welcomeMessage, client.Name)).encode())
}

type Client struct {
	Name   string
	conn   *websocket.Conn
	server *Server
	send   chan []byte
	room   *Room
	log    logrus.FieldLogger
}

func newClient(conn *websocket.Conn, server *Server, name string) *Client {
	return &Client{
		Name:   name,
		conn:   conn,
		server: server,
		send:   make(chan []byte, 256),
		log:    server.log.WithField("client", name),
	}
}

func (client *Client) readPump() {
	defer client.disconnect()
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error { client.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, jsonMessage, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				client.log.WithError(err).Warn("unexpected close")
			}
			break
		}
		client.handleNewMessage(jsonMessage)
	}
}

func (client *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := client.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Attach queued messages to the current websocket message.
			n := len(client.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-client.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (client *Client) disconnect() {
	client.server.unregister <- client
	if client.room != nil {
		client.room.unregister <- client
	}
	close(client.send)
	client.conn.Close()
}

func ServeWs(wsServer *Server, w http.ResponseWriter, r *http.Request) {
	userCtxValue := r.Context().Value(UserContextKey)
	if userCtxValue == nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	user := userCtxValue.(string)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		wsServer.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := newClient(conn, wsServer, user)

	go client.writePump()
	go client.readPump()

	wsServer.register <- client
}

func (client *Client) handleNewMessage(jsonMessage []byte) {
	var message Message
	if err := json.Unmarshal(jsonMessage, &message); err != nil {
		client.log.WithError(err).Warn("bad message")
		return
	}
	message.Sender = client.Name
	switch message.Type {
	case SendMessageAction:
		if room := client.server.findRoom(message.Target); room != nil {
			room.broadcast <- &message
		}
	case JoinRoomAction:
		var name string
		_ = json.Unmarshal(message.Data, &name)
		client.joinRoom(name, false)
	case SoloRoomAction:
		client.joinRoom("", true)
	case GameActionAction:
		client.handleGameAction(&message)
	case GameCommitAction:
		client.handleCommitment(&message)
	}
}

func (client *Client) joinRoom(name string, solo bool) {
	if name == "" {
		name = ulid.Make().String()
	}
	room := client.server.findOrCreateRoom(name, solo)
	if client.room != room {
		if client.room != nil {
			client.room.unregister <- client
		}
		client.room = room
		room.register <- client
		client.send <- (&Message{Type: RoomJoinedAction, Target: room.Name, Sender: client.Name}).encode()
	}
}

// handleGameAction routes one proposed action into the engine and relays
// the verdict. Stale results are dropped without a reply; the peer already
// moved on.
func (client *Client) handleGameAction(message *Message) {
	room := client.room
	if room == nil || room.match == nil {
		client.send <- wireError(&game.RuleError{Code: game.CodeNotEligible, Reason: "no active match"}).encode()
		return
	}
	var wire WireAction
	if err := json.Unmarshal(message.Data, &wire); err != nil {
		client.send <- wireError(&game.RuleError{Code: game.CodeInvalidPayload, Reason: err.Error()}).encode()
		return
	}
	action, err := wire.toAction(game.PlayerID(client.Name))
	if err != nil {
		client.send <- wireError(&game.RuleError{Code: game.CodeInvalidPayload, Reason: err.Error()}).encode()
		return
	}
	if err := room.match.QueueAction(action); err != nil {
		if game.CodeOf(err) == game.CodeStaleOrOutOfOrder {
			client.log.WithError(err).Debug("dropping stale action")
			return
		}
		client.send <- wireError(err).encode()
	}
}

func (client *Client) handleCommitment(message *Message) {
	room := client.room
	if room == nil || room.match == nil {
		client.send <- wireError(&game.RuleError{Code: game.CodeNotEligible, Reason: "no active match"}).encode()
		return
	}
	var wire WireCommitment
	if err := json.Unmarshal(message.Data, &wire); err != nil {
		client.send <- wireError(&game.RuleError{Code: game.CodeInvalidPayload, Reason: err.Error()}).encode()
		return
	}
	if err := room.match.SubmitCommitment(game.PlayerID(client.Name), wire.Phase, wire.Payload); err != nil {
		if game.CodeOf(err) == game.CodeStaleOrOutOfOrder {
			client.log.WithError(err).Debug("dropping stale commitment")
			return
		}
		client.send <- wireError(err).encode()
	}
}

type Server struct {
	clients    map[string]*Client
	rooms      map[string]*Room
	register   chan *Client
	unregister chan *Client
	repository *Repository
	broker     Broker
	cfg        *Config
	log        logrus.FieldLogger
	mutex      sync.Mutex
}

func NewWebsocketServer(cfg *Config, broker Broker, repository *Repository, log logrus.FieldLogger) *Server {
	return &Server{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]*Room),
		repository: repository,
		broker:     broker,
		cfg:        cfg,
		log:        log,
	}
}

func (server *Server) Run() {
	for {
		select {
		case client := <-server.register:
			server.registerClient(client)
		case client := <-server.unregister:
			server.unregisterClient(client)
		}
	}
}

func (server *Server) registerClient(client *Client) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.clients[client.Name] = client
}

func (server *Server) unregisterClient(client *Client) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	delete(server.clients, client.Name)
}

func (server *Server) findRoom(name string) *Room {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	return server.rooms[name]
}

func (server *Server) findOrCreateRoom(name string, solo bool) *Room {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	room, ok := server.rooms[name]
	if !ok {
		room = NewRoom(name, server, solo)
		go room.Run()
		server.rooms[name] = room
	}
	return room
}

func (server *Server) removeRoom(room *Room) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	delete(server.rooms, room.Name)
}
