package simulator

import (
	"sync"

	"github.com/google/uuid"
	"github.com/turtacn/Tether/pkg/consts"
	"github.com/turtacn/Tether/pkg/protocol"
)

// states is what the simulated server process knows about itself.
type states struct {
	mu          sync.RWMutex
	sessionKey  string
	app         consts.ApplicationState
	startKey    string
	health      protocol.DroneHealth
	drone       consts.DroneState
	accessToken string
}

func newStates() *states {
	return &states{sessionKey: uuid.NewString()}
}

func (s *states) SessionKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionKey
}

// rotate issues a new session key, invalidating every console bound to the old one.
func (s *states) rotate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionKey = uuid.NewString()
	return s.sessionKey
}

func (s *states) snapshot() protocol.StatesResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return protocol.StatesResponse{
		AccessTokenDesc:  describeToken(s.accessToken),
		ApplicationState: int(s.app),
		StartKey:         s.startKey,
	}
}

func (s *states) appInfo() protocol.AppInfoFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return protocol.AppInfoFrame{
		MessageType: consts.MessageAppInfo,
		SessionKey:  s.sessionKey,
		State:       int(s.app),
		DroneHealth: s.health,
		DroneState:  int(s.drone),
	}
}

// start returns false when the application was already started.
func (s *states) start(startKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app == consts.AppStarted {
		return false
	}
	s.app = consts.AppStarted
	s.startKey = startKey
	s.drone = consts.DroneReady
	s.health = protocol.DroneHealth{Health: int(consts.HealthOk), BatteryLevel: 100}
	return true
}

func (s *states) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.app = consts.AppInit
	s.startKey = ""
	s.drone = consts.DroneUnknown
	s.health = protocol.DroneHealth{}
}

func (s *states) setDrone(state consts.DroneState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.app != consts.AppStarted {
		return false
	}
	s.drone = state
	return true
}

func (s *states) setHealth(h protocol.DroneHealth) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()
}

func (s *states) setToken(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	return describeToken(token)
}

// describeToken masks all but the first few characters.
func describeToken(token string) string {
	const visible = 4
	if token == "" {
		return ""
	}
	if len(token) <= visible {
		return "****"
	}
	return token[:visible] + "****"
}

// Personal.AI order the ending
