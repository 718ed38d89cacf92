package gamebridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livetalk/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidToken = errors.New("invalid or expired bridge token")
	ErrGameDisabled = errors.New("external game is disabled")
	// ErrInsufficientBalance maps to the in-band "Insufficient balance"
	// error message; the balance is left untouched.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// tokenTTL bounds how long an unclaimed open ticket stays valid.
const tokenTTL = 2 * time.Minute

// Ticket is handed to the client when it opens an external game; the game
// presents the token when it connects to the bridge socket.
type Ticket struct {
	Token  string `json:"token"`
	GameID uint   `json:"game_id"`
	WSPath string `json:"ws_path"`
}

type pendingTicket struct {
	userID    uint
	gameID    uint
	expiresAt time.Time
}

// Registry mints one-time bridge tokens and resolves them into sessions.
type Registry struct {
	mu      sync.Mutex
	db      *gorm.DB
	tickets map[string]pendingTicket
	logger  *slog.Logger
}

// NewRegistry creates an empty bridge registry.
func NewRegistry(db *gorm.DB, logger *slog.Logger) *Registry {
	return &Registry{
		db:      db,
		tickets: make(map[string]pendingTicket),
		logger:  logger,
	}
}

// Open mints a one-time token for userID to play the given game.
func (r *Registry) Open(userID, gameID uint) (*Ticket, error) {
	var game models.ExternalGame
	if err := r.db.First(&game, gameID).Error; err != nil {
		return nil, fmt.Errorf("load external game: %w", err)
	}
	if !game.Enabled {
		return nil, ErrGameDisabled
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.tickets[token] = pendingTicket{
		userID:    userID,
		gameID:    gameID,
		expiresAt: time.Now().Add(tokenTTL),
	}
	r.mu.Unlock()

	return &Ticket{Token: token, GameID: gameID, WSPath: "/api/v1/bridge/ws"}, nil
}

// Claim exchanges a token for a live session. Tokens are single-use.
func (r *Registry) Claim(token string) (*Session, error) {
	r.mu.Lock()
	ticket, ok := r.tickets[token]
	if ok {
		delete(r.tickets, token)
	}
	r.mu.Unlock()

	if !ok || time.Now().After(ticket.expiresAt) {
		return nil, ErrInvalidToken
	}

	var game models.ExternalGame
	if err := r.db.First(&game, ticket.gameID).Error; err != nil {
		return nil, fmt.Errorf("load external game: %w", err)
	}
	return &Session{
		db:     r.db,
		userID: ticket.userID,
		game:   game,
		logger: r.logger,
	}, nil
}

// Session is one live bridge connection between a user and an external
// game. It owns the sequence-number window for that connection.
type Session struct {
	db     *gorm.DB
	userID uint
	game   models.ExternalGame
	logger *slog.Logger

	mu      sync.Mutex
	lastSeq uint64
	outSeq  uint64
}

// UserID returns the owning user's id.
func (s *Session) UserID() uint { return s.userID }

// AllowedOrigin returns the origin the game is registered under.
func (s *Session) AllowedOrigin() string { return s.game.AllowedOrigin }

// CheckOrigin reports whether a websocket Origin header may use this
// session. An unregistered origin rejects everything.
func (s *Session) CheckOrigin(origin string) bool {
	return s.game.AllowedOrigin != "" && origin == s.game.AllowedOrigin
}

// Ready builds the one-shot readiness ping.
func (s *Session) Ready() Envelope {
	return s.reply(TypeReady, ReadyPayload{Version: ProtocolVersion})
}

// Handle processes one inbound frame and returns the reply frame.
// Validation failures return an error and no reply; domain-level failures
// (insufficient balance) return an in-band TypeError reply.
func (s *Session) Handle(ctx context.Context, env Envelope) (Envelope, error) {
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}

	s.mu.Lock()
	if env.Seq <= s.lastSeq {
		s.mu.Unlock()
		return Envelope{}, ErrStaleSeq
	}
	s.lastSeq = env.Seq
	s.mu.Unlock()

	switch env.Type {
	case TypeGetUser, TypeGetUserLegacy:
		return s.handleGetUser(ctx)
	case TypeUpdateBalance, TypeUpdateBalanceLegacy:
		return s.handleUpdateBalance(ctx, env.Payload)
	default:
		return Envelope{}, fmt.Errorf("%w: unknown type %q", ErrBadMessage, env.Type)
	}
}

func (s *Session) handleGetUser(ctx context.Context) (Envelope, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, s.userID).Error; err != nil {
		return Envelope{}, fmt.Errorf("load user: %w", err)
	}

	id := fmt.Sprintf("%d", user.ID)
	if user.CustomID != nil {
		id = *user.CustomID
	}
	return s.reply(TypeUserData, UserDataPayload{
		Name:      user.Nickname,
		Coins:     user.Coins,
		Avatar:    user.Avatar,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	}), nil
}

func (s *Session) handleUpdateBalance(ctx context.Context, payload json.RawMessage) (Envelope, error) {
	var update UpdateBalancePayload
	if err := json.Unmarshal(payload, &update); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	var newBalance float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, s.userID).Error; err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		if update.Amount < 0 && -update.Amount > user.Coins {
			return ErrInsufficientBalance
		}

		updates := map[string]interface{}{
			"coins": gorm.Expr("coins + ?", update.Amount),
		}
		// Stakes count toward lifetime spend, winnings do not.
		if update.Amount < 0 {
			updates["wealth"] = gorm.Expr("wealth + ?", -update.Amount)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		newBalance = user.Coins + update.Amount
		return nil
	})
	if errors.Is(err, ErrInsufficientBalance) {
		return s.reply(TypeError, "Insufficient balance"), nil
	}
	if err != nil {
		return Envelope{}, err
	}

	return s.reply(TypeBalanceUpdated, BalanceUpdatedPayload{NewBalance: newBalance}), nil
}

func (s *Session) reply(msgType string, payload interface{}) Envelope {
	s.mu.Lock()
	s.outSeq++
	seq := s.outSeq
	s.mu.Unlock()

	return Envelope{
		V:       ProtocolVersion,
		Seq:     seq,
		Type:    msgType,
		Payload: marshalPayload(payload),
	}
}
