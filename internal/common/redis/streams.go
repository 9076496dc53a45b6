package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamEntry is one event appended to a stream. Headers are stored as plain
// fields beside the JSON payload so consumers can filter without decoding it.
type StreamEntry struct {
	Type       string
	Key        string
	OccurredAt time.Time
	Payload    interface{}
}

// StreamMessage is one entry read back from a stream
type StreamMessage struct {
	ID         string
	Type       string
	Key        string
	OccurredAt time.Time
	Data       string
}

// AppendJSON XADDs entry to stream. maxLen > 0 trims the stream approximately.
func AppendJSON(ctx context.Context, client *redis.Client, stream string, maxLen int64, entry StreamEntry) (string, error) {
	data, err := json.Marshal(entry.Payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", entry.Type, err)
	}
	occurred := entry.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"type":        entry.Type,
			"key":         entry.Key,
			"occurred_at": strconv.FormatInt(occurred.UnixMilli(), 10),
			"data":        string(data),
		},
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}

// ReadStream reads up to count entries after lastID ("0" reads from the start)
func ReadStream(ctx context.Context, client *redis.Client, stream, lastID string, count int64) ([]StreamMessage, error) {
	res, err := client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   count,
		Block:   -1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var out []StreamMessage
	for _, s := range res {
		for _, msg := range s.Messages {
			out = append(out, decodeMessage(msg))
		}
	}
	return out, nil
}

func decodeMessage(msg redis.XMessage) StreamMessage {
	m := StreamMessage{ID: msg.ID}
	m.Type, _ = msg.Values["type"].(string)
	m.Key, _ = msg.Values["key"].(string)
	m.Data, _ = msg.Values["data"].(string)
	if ms, ok := msg.Values["occurred_at"].(string); ok {
		if n, err := strconv.ParseInt(ms, 10, 64); err == nil {
			m.OccurredAt = time.UnixMilli(n).UTC()
		}
	}
	return m
}
