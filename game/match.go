package game

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const defaultInterceptTimeout = 30 * time.Second

// Match is the authoritative state machine for one game between a host and
// a guest. All mutation happens on the single goroutine running the request
// loop; the exported methods route through it, so callers never touch the
// board concurrently. The host process owns the Match; remote peers only
// ever see snapshots and events.
type Match struct {
	ID    ulid.ULID
	Host  PlayerID
	Guest PlayerID

	state     *BoardState
	cards     []*Card
	commits   map[PlayerID]*Commitment
	lastPhase TurnPhase
	mandatory *MandatoryAction

	intercept        *InterceptionChoice
	interceptGen     int
	interceptTimeout time.Duration

	over   bool
	winner PlayerID

	eventHandlers map[EventType][]EventHandler

	requests chan func()
	done     chan struct{}
	log      logrus.FieldLogger
}

type MatchOption func(*Match)

// WithInterceptTimeout bounds how long a defender may sit on an
// interception choice before the host declines for them. Zero disables the
// timer, which only makes sense in tests.
func WithInterceptTimeout(d time.Duration) MatchOption {
	return func(m *Match) { m.interceptTimeout = d }
}

func WithLogger(log logrus.FieldLogger) MatchOption {
	return func(m *Match) { m.log = log }
}

func WithCards(cards []*Card) MatchOption {
	return func(m *Match) { m.cards = cards }
}

func NewMatch(host, guest PlayerID, opts ...MatchOption) *Match {
	m := &Match{
		ID:               ulid.Make(),
		Host:             host,
		Guest:            guest,
		state:            NewBoardState(host, guest),
		cards:            BuiltinCards(),
		commits:          map[PlayerID]*Commitment{},
		lastPhase:        PhaseNone,
		interceptTimeout: defaultInterceptTimeout,
		eventHandlers:    map[EventType][]EventHandler{},
		requests:         make(chan func(), 64),
		done:             make(chan struct{}),
		log:              logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("match", m.ID.String())
	return m
}

// Run consumes requests until Stop. It is the only goroutine that mutates
// the board.
func (m *Match) Run() {
	for {
		select {
		case req := <-m.requests:
			req()
		case <-m.done:
			return
		}
	}
}

func (m *Match) Stop() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// post schedules fn on the match loop without waiting for it. Used by
// timers and other goroutines that must not race the loop.
func (m *Match) post(fn func()) {
	select {
	case m.requests <- fn:
	case <-m.done:
	}
}

// call runs fn on the match loop and waits for its result.
func (m *Match) call(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case m.requests <- func() { errc <- fn() }:
	case <-m.done:
		return ruleErr(CodeTransportFailure, "match stopped")
	}
	select {
	case err := <-errc:
		return err
	case <-m.done:
		return ruleErr(CodeTransportFailure, "match stopped")
	}
}

// QueueAction validates and applies one action in submission order.
func (m *Match) QueueAction(a Action) error {
	return m.call(func() error { return m.handleAction(a) })
}

// SubmitCommitment records a player's phase commitment and advances the
// phase once both sides completed.
func (m *Match) SubmitCommitment(player PlayerID, phase TurnPhase, payload CommitmentPayload) error {
	return m.call(func() error { return m.submitCommitment(player, phase, payload) })
}

// On registers a handler for an event type. Handlers run inline on the
// match loop, so they must not block; register before Run.
func (m *Match) On(event EventType, handler EventHandler) {
	m.eventHandlers[event] = append(m.eventHandlers[event], handler)
}

func (m *Match) emit(e Event) {
	for _, f := range m.eventHandlers[e.Type] {
		f(&e)
	}
	for _, f := range m.eventHandlers[AllEvents] {
		f(&e)
	}
}

// Snapshot returns the viewer-relative board; safe to call from any
// goroutine.
func (m *Match) Snapshot(viewer PlayerID) (*Snapshot, error) {
	var snap *Snapshot
	err := m.call(func() error {
		snap = m.snapshot(viewer)
		return nil
	})
	return snap, err
}

// Over reports whether the match finished and who won.
func (m *Match) Over() (bool, PlayerID) {
	var over bool
	var winner PlayerID
	if err := m.call(func() error {
		over, winner = m.over, m.winner
		return nil
	}); err != nil {
		return true, ""
	}
	return over, winner
}

// Fingerprint hashes the authoritative board, for replay comparison.
func (m *Match) Fingerprint() string {
	var fp string
	m.call(func() error {
		fp = m.state.Fingerprint()
		return nil
	})
	return fp
}
