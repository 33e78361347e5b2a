package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/popmadice/backend/internal/game"
)

// gameEventsChannel carries every semantic game event. Publishing through
// Redis instead of calling the hub directly lets multiple server instances
// share one fan-out plane.
const gameEventsChannel = "game_events"

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

type eventEnvelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// RedisPublisher implements the engine's EventPublisher by pushing envelopes
// onto the game_events channel. Fire and forget: a publish failure is logged,
// never surfaced to game logic.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, event string, payload interface{}) {
	if p.rdb == nil {
		return
	}
	b, err := json.Marshal(eventEnvelope{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("[WS] Failed to marshal %s event: %v", event, err)
		return
	}
	if err := p.rdb.Publish(ctx, gameEventsChannel, b).Err(); err != nil {
		log.Printf("[WS] Failed to publish %s event: %v", event, err)
	}
}

// StartGameEventSubscriber subscribes to game_events and routes each event to
// the connected clients it concerns.
func StartGameEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; game event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, gameEventsChannel)
	ch := pubsub.Channel()
	go func() {
		log.Println("[WS] game_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}

			typeStr, _ := payload["type"].(string)
			data, _ := payload["data"].(map[string]interface{})
			sessionID, _ := data["session_id"].(string)
			if sessionID == "" {
				if s, ok := data["session"].(map[string]interface{}); ok {
					sessionID, _ = s["id"].(string)
				}
			}

			switch typeStr {
			case game.EventGameCreated, game.EventGameRoll, game.EventGameResult:
				if sessionID == "" {
					log.Printf("[WS] %s event without session id; dropped", typeStr)
					continue
				}
				GameHub.BroadcastToGame(sessionID, payload)

			case game.EventMatchFound:
				p1, _ := data["player1_id"].(string)
				p2, _ := data["player2_id"].(string)
				GameHub.SendToPlayer(p1, payload)
				GameHub.SendToPlayer(p2, payload)

			case game.EventQueueUpdate:
				GameHub.Broadcast(payload)

			default:
				log.Printf("[WS] unknown event type: %s", typeStr)
			}
		}
	}()
}
