package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	ResultsStreamKey = "pixelbench:results"
	resultsStreamLen = 1000
)

// RedisSink appends every report to a capped Redis stream so runs from
// several machines can be compared in one place.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(ctx context.Context, addr string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSink{client: client}, nil
}

// Publish adds the report to the results stream and returns the entry ID.
func (s *RedisSink) Publish(ctx context.Context, r *Report) (string, error) {
	values, err := streamValues(r)
	if err != nil {
		return "", err
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: ResultsStreamKey,
		MaxLen: resultsStreamLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add report to stream: %w", err)
	}
	return id, nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}

func streamValues(r *Report) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return map[string]any{
		"timestamp": r.Timestamp.Unix(),
		"workers":   r.Workers,
		"report":    string(data),
	}, nil
}
