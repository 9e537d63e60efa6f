package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NFC session states
const (
	NFCStateWaiting      = "WAITING"
	NFCStateCardDetected = "CARD_DETECTED"
	NFCStateProcessing   = "PROCESSING"
	NFCStateCompleted    = "COMPLETED"
	NFCStateFailed       = "FAILED"
)

var (
	// ErrSessionNotFound means the NFC session id is unknown
	ErrSessionNotFound = errors.New("nfc session not found")
	// ErrSessionExpired means the session outlived its TTL
	ErrSessionExpired = errors.New("nfc session expired")
	// ErrBadTransition means the session is not in the right state
	ErrBadTransition = errors.New("invalid nfc session transition")
)

// NFCSession is one tap-to-pay attempt at a terminal
type NFCSession struct {
	ID          string
	OrderID     int64
	AmountCents int64
	State       string
	CreatedAt   time.Time
}

// NFCProvider keeps short-lived sessions in memory. Expired sessions
// are rejected on next access rather than swept proactively; process
// restart loses in-flight sessions and the terminal starts over.
type NFCProvider struct {
	mu       sync.Mutex
	sessions map[string]*NFCSession
	ttl      time.Duration
	now      func() time.Time
}

// NewNFCProvider creates an NFC adapter with the given session TTL
func NewNFCProvider(ttl time.Duration) *NFCProvider {
	return &NFCProvider{
		sessions: make(map[string]*NFCSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (p *NFCProvider) Type() string {
	return TypeNFC
}

// CreateIntent opens a WAITING session keyed by a generated id
func (p *NFCProvider) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	session := &NFCSession{
		ID:          uuid.New().String(),
		OrderID:     req.OrderID,
		AmountCents: req.AmountCents,
		State:       NFCStateWaiting,
		CreatedAt:   p.now(),
	}

	p.mu.Lock()
	p.sessions[session.ID] = session
	p.mu.Unlock()

	return &Intent{
		ProviderRef:  session.ID,
		Status:       StatusPending,
		Instructions: "Hold the card near the terminal to pay.",
	}, nil
}

// Confirm maps the session's state onto the normalized status
func (p *NFCProvider) Confirm(ctx context.Context, providerRef string) (*Result, error) {
	session, err := p.getSession(providerRef)
	if err != nil {
		return nil, err
	}

	var status Status
	switch session.State {
	case NFCStateWaiting, NFCStateCardDetected:
		status = StatusPending
	case NFCStateProcessing:
		status = StatusProcessing
	case NFCStateCompleted:
		status = StatusCompleted
	case NFCStateFailed:
		status = StatusFailed
	default:
		status = StatusPending
	}

	return &Result{ProviderRef: providerRef, Status: status}, nil
}

// Refund is not possible over the NFC terminal
func (p *NFCProvider) Refund(ctx context.Context, providerRef string, amountCents int64) (*RefundResult, error) {
	return nil, fmt.Errorf("%w: nfc payments are refunded through the acquirer", ErrUnsupported)
}

// HandleWebhook always rejects: the terminal drives sessions directly
func (p *NFCProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	return &WebhookResult{Valid: false}, nil
}

// DetectCard moves a WAITING session to CARD_DETECTED
func (p *NFCProvider) DetectCard(sessionID string) (*NFCSession, error) {
	return p.transition(sessionID, NFCStateWaiting, NFCStateCardDetected)
}

// BeginProcessing moves a CARD_DETECTED session to PROCESSING
func (p *NFCProvider) BeginProcessing(sessionID string) (*NFCSession, error) {
	return p.transition(sessionID, NFCStateCardDetected, NFCStateProcessing)
}

// FinishProcessing resolves a PROCESSING session to COMPLETED or FAILED
func (p *NFCProvider) FinishProcessing(sessionID string, success bool) (*NFCSession, error) {
	to := NFCStateCompleted
	if !success {
		to = NFCStateFailed
	}
	return p.transition(sessionID, NFCStateProcessing, to)
}

// GetSession returns a session, rejecting expired ones
func (p *NFCProvider) GetSession(sessionID string) (*NFCSession, error) {
	return p.getSession(sessionID)
}

func (p *NFCProvider) transition(sessionID, from, to string) (*NFCSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, err := p.getSessionLocked(sessionID)
	if err != nil {
		return nil, err
	}

	if session.State != from {
		return nil, fmt.Errorf("%w: %s -> %s (session is %s)", ErrBadTransition, from, to, session.State)
	}

	session.State = to
	copied := *session
	return &copied, nil
}

func (p *NFCProvider) getSession(sessionID string) (*NFCSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, err := p.getSessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	copied := *session
	return &copied, nil
}

func (p *NFCProvider) getSessionLocked(sessionID string) (*NFCSession, error) {
	session, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if p.now().Sub(session.CreatedAt) > p.ttl {
		delete(p.sessions, sessionID)
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, sessionID)
	}

	return session, nil
}
