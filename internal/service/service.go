// Package service implements the chat request cycle and the read paths over
// the durable stores.
package service

import (
	"sync"

	"github.com/taskdeck/taskdeck/internal/adapter/llm"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/gate"
	"github.com/taskdeck/taskdeck/internal/policy"
	store "github.com/taskdeck/taskdeck/internal/repository"
	"github.com/taskdeck/taskdeck/internal/tools"
)

type Service struct {
	store        store.Store
	llmClient    llm.ChatClient
	registry     *tools.Registry
	policyEngine *policy.Engine
	gate         *gate.Gate
	config       *config.Config

	// userLocks serializes chat cycles per user so two simultaneous messages
	// from one user cannot interleave their tool effects. Different users
	// never contend.
	userLocks sync.Map
}

func New(store store.Store, llmClient llm.ChatClient, registry *tools.Registry, policyEngine *policy.Engine, g *gate.Gate, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		llmClient:    llmClient,
		registry:     registry,
		policyEngine: policyEngine,
		gate:         g,
		config:       cfg,
	}
}

// lockUser acquires the per-user advisory lock and returns the unlock func.
func (s *Service) lockUser(userID string) func() {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
