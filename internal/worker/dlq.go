package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DeadLetterPrefix namespaces the dead-letter list of each queue:
// dead:{queue}. Entries are pushed to the head, so index 0 is the newest.
const DeadLetterPrefix = "dead:"

// DeadLetter is a job that exhausted its attempts or could not be decoded.
// Raw is set only when the envelope itself was unreadable.
type DeadLetter struct {
	Queue    string    `json:"queue"`
	Job      *Job      `json:"job,omitempty"`
	Raw      string    `json:"raw,omitempty"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

func deadLetterKey(queue string) string { return DeadLetterPrefix + queue }

// bury parks a failed job. Failures here are only logged: the job is lost.
func bury(ctx context.Context, rdb *redis.Client, dl DeadLetter) {
	if rdb == nil {
		return
	}
	dl.FailedAt = time.Now().UTC()
	data, err := json.Marshal(dl)
	if err != nil {
		log.Error().Err(err).Str("queue", dl.Queue).Msg("dead letter: marshal failed")
		return
	}
	if err := rdb.LPush(ctx, deadLetterKey(dl.Queue), data).Err(); err != nil {
		log.Error().Err(err).Str("queue", dl.Queue).Msg("dead letter: push failed")
		return
	}

	ev := log.Warn().Str("queue", dl.Queue).Str("reason", dl.Reason)
	if dl.Job != nil {
		ev = ev.Str("type", dl.Job.Type).Int("attempts", dl.Job.Attempts)
	}
	ev.Msg("job dead-lettered")
}

// DeadLetters returns up to n of the newest dead letters of queue.
func DeadLetters(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DeadLetter, error) {
	raws, err := rdb.LRange(ctx, deadLetterKey(queue), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DeadLetter, 0, len(raws))
	for _, raw := range raws {
		var dl DeadLetter
		if err := json.Unmarshal([]byte(raw), &dl); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dead letter: skipping unreadable entry")
			continue
		}
		out = append(out, dl)
	}
	return out, nil
}

// DeadLetterCounts reports the dead-letter backlog of every consumed queue.
func DeadLetterCounts(ctx context.Context, rdb *redis.Client) (map[string]int64, error) {
	counts := make(map[string]int64, len(Queues))
	for _, q := range Queues {
		n, err := rdb.LLen(ctx, deadLetterKey(q)).Result()
		if err != nil {
			return nil, err
		}
		counts[q] = n
	}
	return counts, nil
}
