package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"snowfield/config"
)

var (
	ErrChatEmpty       = errors.New("empty chat message")
	ErrChatTooLong     = errors.New("chat message too long")
	ErrChatRateLimited = errors.New("chat rate limited")
)

// ChatPolicy holds the live chat limits. It can be changed at runtime
// through the admin endpoint.
type ChatPolicy struct {
	mu           sync.RWMutex
	maxLength    int
	rateMessages int
	rateWindow   time.Duration
}

func NewChatPolicy(cfg config.ChatConfig) *ChatPolicy {
	return &ChatPolicy{
		maxLength:    cfg.MaxLength,
		rateMessages: cfg.RateMessages,
		rateWindow:   cfg.RateWindow,
	}
}

// Check trims text and rejects empty or over-long lines.
func (p *ChatPolicy) Check(text string) (string, error) {
	p.mu.RLock()
	maxLength := p.maxLength
	p.mu.RUnlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &userError{ErrChatEmpty, "Message cannot be empty"}
	}
	if utf8.RuneCountInString(text) > maxLength {
		return "", &userError{ErrChatTooLong, fmt.Sprintf("Message must be %d characters or less", maxLength)}
	}
	return text, nil
}

// Limit is the sustained rate and burst for one session: rateMessages per
// rateWindow, all of which may be spent at once.
func (p *ChatPolicy) Limit() (rate.Limit, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return rate.Every(p.rateWindow / time.Duration(p.rateMessages)), p.rateMessages
}

// NewLimiter returns a full limiter for a new session.
func (p *ChatPolicy) NewLimiter() *rate.Limiter {
	return rate.NewLimiter(p.Limit())
}

// ChatSettings is the admin view of the policy. Nil fields are left
// unchanged on update.
type ChatSettings struct {
	MaxLength    *int   `json:"max_length,omitempty"`
	RateMessages *int   `json:"rate_messages,omitempty"`
	RateWindowMs *int64 `json:"rate_window_ms,omitempty"`
}

func (p *ChatPolicy) Settings() ChatSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	maxLength, messages, window := p.maxLength, p.rateMessages, p.rateWindow.Milliseconds()
	return ChatSettings{MaxLength: &maxLength, RateMessages: &messages, RateWindowMs: &window}
}

// Update applies the non-nil fields of s. It reports whether the rate
// changed, in which case existing session limiters need refreshing.
func (p *ChatPolicy) Update(s ChatSettings) (rateChanged bool, err error) {
	if s.MaxLength != nil && *s.MaxLength <= 0 {
		return false, fmt.Errorf("max_length must be positive, got %d", *s.MaxLength)
	}
	if s.RateMessages != nil && *s.RateMessages <= 0 {
		return false, fmt.Errorf("rate_messages must be positive, got %d", *s.RateMessages)
	}
	if s.RateWindowMs != nil && *s.RateWindowMs <= 0 {
		return false, fmt.Errorf("rate_window_ms must be positive, got %d", *s.RateWindowMs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if s.MaxLength != nil {
		p.maxLength = *s.MaxLength
	}
	if s.RateMessages != nil {
		p.rateMessages = *s.RateMessages
		rateChanged = true
	}
	if s.RateWindowMs != nil {
		p.rateWindow = time.Duration(*s.RateWindowMs) * time.Millisecond
		rateChanged = true
	}
	return rateChanged, nil
}
