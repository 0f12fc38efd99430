// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	traceKeyPrefix  = "atscore:trace:"
	streamKeyPrefix = "atscore:stream:"
)

type RedisTransport struct {
	rdb *redis.Client
}

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{
		rdb: rdb,
	}
}

func (t *RedisTransport) GetMessageStream(id string) (MessageStream, error) {
	if len(id) == 0 {
		return nil, ErrInvalidStreamID
	}
	rs := &RedisStream{
		id:  id,
		rdb: t.rdb,
	}
	return rs, nil
}

func (t *RedisTransport) SetTrace(ctx context.Context, trace *Trace) error {
	key := traceKeyPrefix + trace.ID

	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, trace)
		pipe.Expire(ctx, key, TraceExpiry)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set trace: %w", err)
	}
	return nil
}

func (t *RedisTransport) GetTrace(ctx context.Context, traceId string) (*Trace, error) {
	res := t.rdb.HGetAll(ctx, traceKeyPrefix+traceId)
	fields, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get trace: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrTraceNotFound
	}

	var trace Trace
	if err := res.Scan(&trace); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return &trace, nil
}

type RedisStream struct {
	id  string
	rdb *redis.Client
}

func (s *RedisStream) Send(ctx context.Context, payload MessageStreamPayload) error {
	payload.ID = ""
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	key := streamKeyPrefix + s.id
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: key,
			ID:     "*",
			Values: map[string]any{
				"payload": string(payloadJSON),
			},
		})
		pipe.Expire(ctx, key, TraceExpiry)
		return nil
	})
	return err
}

func (s *RedisStream) History(ctx context.Context) ([]MessageStreamPayload, error) {
	msgs, err := s.rdb.XRange(ctx, streamKeyPrefix+s.id, "-", "+").Result()
	if err != nil {
		return nil, err
	}

	payloads := make([]MessageStreamPayload, 0, len(msgs))
	for _, msg := range msgs {
		p, err := decodeMessage(msg)
		if err != nil {
			slog.Debug("skipping stream message", "stream", s.id, "msg", msg.ID, "err", err)
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

func (s *RedisStream) GetID() string {
	return s.id
}

// decodeMessage reads an event and tags it with the stream entry id, which
// stays unique across task retries and across writers.
func decodeMessage(msg redis.XMessage) (MessageStreamPayload, error) {
	var payload MessageStreamPayload

	payloadJSON, ok := msg.Values["payload"].(string)
	if !ok {
		return payload, fmt.Errorf("failed to read payload from stream message")
	}
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return payload, fmt.Errorf("failed to deserialize stream message payload: %w", err)
	}
	payload.ID = msg.ID
	return payload, nil
}
