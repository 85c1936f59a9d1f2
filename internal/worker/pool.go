package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueImagenes = "jobs:imagenes"

	JobEliminarImagen = "eliminar_imagen"

	// MaxAttempts is how many times a job runs before it is dead-lettered.
	MaxAttempts = 3
)

// Queues lists every queue the pool consumes.
var Queues = []string{QueueImagenes}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Processor handles the payload of one job type.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// ImagenRemover deletes a stored image by name.
type ImagenRemover interface {
	Eliminar(nombre string) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP. Without Redis, image deletions
// run inline.
type Dispatcher struct {
	rdb     *redis.Client
	storage ImagenRemover
}

func NewDispatcher(rdb *redis.Client, storage ImagenRemover) *Dispatcher {
	return &Dispatcher{rdb: rdb, storage: storage}
}

// EliminarImagen schedules the deletion of a product image. It never fails
// the caller: errors are logged.
func (d *Dispatcher) EliminarImagen(ctx context.Context, nombre string) {
	if d.rdb != nil {
		err := d.enqueue(ctx, QueueImagenes, JobEliminarImagen, ImagenJobPayload{Nombre: nombre})
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("imagen", nombre).Msg("dispatcher: enqueue failed, deleting inline")
	}
	if err := d.storage.Eliminar(nombre); err != nil {
		log.Warn().Err(err).Str("imagen", nombre).Msg("dispatcher: image delete failed")
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes job queues with a fixed number of goroutines.
type Pool struct {
	rdb        *redis.Client
	processors map[string]Processor
	queues     []string
}

func NewPool(rdb *redis.Client, processors map[string]Processor) *Pool {
	return &Pool{rdb: rdb, processors: processors, queues: Queues}
}

// Start launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, so idle workers cost no CPU. Start returns
// immediately; workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if p.rdb == nil {
		log.Info().Msg("worker pool disabled: no redis")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.handle(ctx, result[0], result[1])
		}
	}
}

// outcome of one processing attempt.
type outcome int

const (
	outcomeDone outcome = iota
	outcomeRetry
	outcomeDead
)

// processJob runs one job and decides what happens to it next.
func (p *Pool) processJob(ctx context.Context, queue string, job *Job) (outcome, error) {
	proc, ok := p.processors[job.Type]
	if !ok {
		return outcomeDead, errors.New("no processor for job type " + job.Type)
	}
	job.Attempts++
	if err := proc.Process(ctx, job.Payload); err != nil {
		log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).
			Int("attempt", job.Attempts).Msg("job failed")
		if job.Attempts >= MaxAttempts {
			return outcomeDead, err
		}
		return outcomeRetry, err
	}
	return outcomeDone, nil
}

func (p *Pool) handle(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		bury(ctx, p.rdb, DeadLetter{Queue: queue, Raw: raw, Reason: "invalid envelope"})
		return
	}

	switch res, err := p.processJob(ctx, queue, &job); res {
	case outcomeRetry:
		encoded, mErr := json.Marshal(job)
		if mErr == nil {
			mErr = p.rdb.LPush(ctx, queue, encoded).Err()
		}
		if mErr != nil {
			bury(ctx, p.rdb, DeadLetter{Queue: queue, Job: &job, Reason: err.Error()})
		}
	case outcomeDead:
		bury(ctx, p.rdb, DeadLetter{Queue: queue, Job: &job, Reason: err.Error()})
	default:
		log.Debug().Str("queue", queue).Str("type", job.Type).Msg("job done")
	}
}
