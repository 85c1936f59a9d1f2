package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemover struct {
	eliminados []string
	err        error
}

func (f *fakeRemover) Eliminar(nombre string) error {
	f.eliminados = append(f.eliminados, nombre)
	return f.err
}

type countingProcessor struct {
	calls int
	err   error
}

func (p *countingProcessor) Process(context.Context, json.RawMessage) error {
	p.calls++
	return p.err
}

func TestDispatcher_WithoutRedisDeletesInline(t *testing.T) {
	storage := &fakeRemover{}
	d := NewDispatcher(nil, storage)

	d.EliminarImagen(context.Background(), "1-a.png")

	assert.Equal(t, []string{"1-a.png"}, storage.eliminados)
}

func TestDispatcher_InlineFailureIsSwallowed(t *testing.T) {
	storage := &fakeRemover{err: errors.New("permission denied")}
	d := NewDispatcher(nil, storage)

	assert.NotPanics(t, func() { d.EliminarImagen(context.Background(), "1-a.png") })
}

func TestImagenWorker_Process(t *testing.T) {
	storage := &fakeRemover{}
	w := NewImagenWorker(storage)

	raw, _ := json.Marshal(ImagenJobPayload{Nombre: "1-cola.jpg"})
	require.NoError(t, w.Process(context.Background(), raw))
	assert.Equal(t, []string{"1-cola.jpg"}, storage.eliminados)

	assert.Error(t, w.Process(context.Background(), json.RawMessage(`{"nombre":""}`)))
	assert.Error(t, w.Process(context.Background(), json.RawMessage(`not json`)))
}

func TestPool_ProcessJob_RetriesThenDeadLetters(t *testing.T) {
	proc := &countingProcessor{err: errors.New("disk busy")}
	p := NewPool(nil, map[string]Processor{JobEliminarImagen: proc})
	job := &Job{Type: JobEliminarImagen, Payload: json.RawMessage(`{"nombre":"x.png"}`)}

	for i := 1; i < MaxAttempts; i++ {
		res, err := p.processJob(context.Background(), QueueImagenes, job)
		assert.Error(t, err)
		assert.Equal(t, outcomeRetry, res)
		assert.Equal(t, i, job.Attempts)
	}
	res, err := p.processJob(context.Background(), QueueImagenes, job)
	assert.Error(t, err)
	assert.Equal(t, outcomeDead, res)
	assert.Equal(t, MaxAttempts, proc.calls)
}

func TestPool_ProcessJob_Success(t *testing.T) {
	proc := &countingProcessor{}
	p := NewPool(nil, map[string]Processor{JobEliminarImagen: proc})

	res, err := p.processJob(context.Background(), QueueImagenes, &Job{Type: JobEliminarImagen})
	assert.NoError(t, err)
	assert.Equal(t, outcomeDone, res)
}

func TestPool_ProcessJob_UnknownTypeIsDead(t *testing.T) {
	p := NewPool(nil, map[string]Processor{})

	res, err := p.processJob(context.Background(), QueueImagenes, &Job{Type: "desconocido"})
	assert.Error(t, err)
	assert.Equal(t, outcomeDead, res)
}

func TestPool_StartWithoutRedisIsNoop(t *testing.T) {
	p := NewPool(nil, nil)
	assert.NotPanics(t, func() { p.Start(context.Background(), 2) })
}

func TestBury_WithoutRedisIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		bury(context.Background(), nil, DeadLetter{Queue: QueueImagenes, Raw: "x", Reason: "invalid envelope"})
	})
}

func TestDeadLetter_JSONShape(t *testing.T) {
	data, err := json.Marshal(DeadLetter{Queue: QueueImagenes, Raw: "not json", Reason: "invalid envelope"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "dead:"+QueueImagenes, deadLetterKey(QueueImagenes))
	assert.Equal(t, "not json", m["raw"])
	assert.NotContains(t, m, "job")
}
