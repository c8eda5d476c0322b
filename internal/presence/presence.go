package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"whiteboard-backend/internal/cache"
)

// Data is the online-presence record kept per user. It is the long-window
// companion of the in-room cursor tracker: the key expires on its own when
// heartbeats stop, so a silent disconnect self-heals without a leave signal.
type Data struct {
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	LastHeartbeat int64  `json:"last_heartbeat"`
}

// EventsChannel carries online/offline transitions for external consumers
// (other server instances, dashboards).
const EventsChannel = "presence:events"

// Manager tracks which users are online via TTL'd Redis keys
type Manager struct {
	redis *cache.RedisClient
	ttl   time.Duration
}

// NewManager creates a presence manager; ttl is the key lifetime, which
// clients refresh at roughly half that cadence.
func NewManager(redis *cache.RedisClient, ttl time.Duration) *Manager {
	return &Manager{redis: redis, ttl: ttl}
}

func (m *Manager) userKey(userID int64) string {
	return fmt.Sprintf("presence:user:%d", userID)
}

// SetOnline marks a user online (connect, or explicit refresh with new data)
func (m *Manager) SetOnline(ctx context.Context, userID int64, name string) error {
	data := Data{
		UserID:        userID,
		Name:          name,
		LastHeartbeat: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if err := m.redis.Set(ctx, m.userKey(userID), jsonData, m.ttl); err != nil {
		return err
	}
	m.announce(ctx, userID, "online")
	return nil
}

// Heartbeat extends the TTL without rewriting the record
func (m *Manager) Heartbeat(ctx context.Context, userID int64) error {
	ok, err := m.redis.Expire(ctx, m.userKey(userID), m.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %d not present (offline)", userID)
	}
	return nil
}

// SetOffline removes the presence record on clean disconnect
func (m *Manager) SetOffline(ctx context.Context, userID int64) error {
	if err := m.redis.Del(ctx, m.userKey(userID)); err != nil {
		return err
	}
	m.announce(ctx, userID, "offline")
	return nil
}

// announce publishes a transition; failures are logged, never fatal
func (m *Manager) announce(ctx context.Context, userID int64, state string) {
	payload, err := json.Marshal(map[string]any{"user_id": userID, "state": state})
	if err != nil {
		return
	}
	if err := m.redis.Publish(ctx, EventsChannel, payload); err != nil {
		log.Printf("[Presence] Failed to publish %s for user %d: %v", state, userID, err)
	}
}

// Get returns a user's presence, or nil when offline
func (m *Manager) Get(ctx context.Context, userID int64) (*Data, error) {
	val, err := m.redis.Get(ctx, m.userKey(userID))
	if errors.Is(err, cache.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetMulti returns presence for several users in one round trip
func (m *Manager) GetMulti(ctx context.Context, userIDs []int64) (map[int64]*Data, error) {
	if len(userIDs) == 0 {
		return map[int64]*Data{}, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = m.userKey(id)
	}

	results, err := m.redis.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	presenceMap := make(map[int64]*Data)
	for i, result := range results {
		if result == nil {
			continue // offline
		}

		strVal, ok := result.(string)
		if !ok {
			continue
		}

		var data Data
		if err := json.Unmarshal([]byte(strVal), &data); err == nil {
			presenceMap[userIDs[i]] = &data
		}
	}

	return presenceMap, nil
}
