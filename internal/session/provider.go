package session

import (
	"strings"
	"sync"
)

// Provider holds the identity a cart belongs to. An empty user id means the
// device is anonymous.
type Provider struct {
	mu     sync.Mutex
	userID string
	subs   map[int]func(string)
	nextID int
}

func NewProvider(userID string) *Provider {
	return &Provider{
		userID: strings.TrimSpace(userID),
		subs:   make(map[int]func(string)),
	}
}

func (p *Provider) CurrentUserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// Set switches the identity and notifies subscribers synchronously, outside
// the lock. It reports whether the identity changed; setting the same user
// again notifies nobody.
func (p *Provider) Set(userID string) bool {
	userID = strings.TrimSpace(userID)

	p.mu.Lock()
	if userID == p.userID {
		p.mu.Unlock()
		return false
	}
	p.userID = userID
	subs := make([]func(string), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(userID)
	}
	return true
}

// SignOut is Set("").
func (p *Provider) SignOut() bool {
	return p.Set("")
}

// Subscribe registers fn for identity changes and returns its unsubscribe
// func, which is safe to call more than once.
func (p *Provider) Subscribe(fn func(userID string)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}
