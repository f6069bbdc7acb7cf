// Package prediction consumes the predictor's Redis feed and turns each
// record into a scheduled intervention.
package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ild-thl/motbot-sub000/internal/config"
	"github.com/ild-thl/motbot-sub000/internal/intervention"
)

// NewRedisClient creates a Redis client for the prediction feed. Returns
// nil when no host is configured; the feed is then disabled and predictions
// arrive through the HTTP API only.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func CloseRedisClient(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// Feed subscribes to the prediction channel and hands every record to the
// intervention service.
type Feed struct {
	redis   *redis.Client
	service *intervention.Service
	channel string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewFeed(redisClient *redis.Client, service *intervention.Service, channel string) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		redis:   redisClient,
		service: service,
		channel: channel,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (f *Feed) Start() error {
	if f.redis == nil {
		log.Println("Prediction feed: Redis not available, accepting predictions via API only")
		return nil
	}

	pubsub := f.redis.Subscribe(f.ctx, f.channel)

	log.Printf("Prediction feed started, listening on %s", f.channel)

	go func() {
		defer pubsub.Close()

		for {
			select {
			case <-f.ctx.Done():
				return
			default:
				msg, err := pubsub.ReceiveMessage(f.ctx)
				if err != nil {
					if f.ctx.Err() != nil {
						return
					}
					log.Printf("Error receiving prediction: %v", err)
					continue
				}

				f.handlePayload([]byte(msg.Payload))
			}
		}
	}()

	return nil
}

func (f *Feed) Stop() {
	f.cancel()
}

func (f *Feed) handlePayload(payload []byte) {
	var p intervention.Prediction
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Printf("Error unmarshaling prediction: %v", err)
		return
	}

	created, err := f.service.CreateFromPrediction(&p)
	if err != nil {
		if errors.Is(err, intervention.ErrResolution) {
			log.Printf("Dropping prediction for unknown sample %d (target %s)", p.SampleID, p.Target)
			return
		}
		log.Printf("Error handling prediction: %v", err)
		return
	}

	if created == nil {
		return
	}

	log.Printf("Prediction accepted: intervention %d scheduled (target %s, score %.2f)", created.ID, p.Target, p.Score)
}
