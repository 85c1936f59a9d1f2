package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

// ImagenJobPayload is the job envelope sent to QueueImagenes.
type ImagenJobPayload struct {
	Nombre string `json:"nombre"`
}

// ImagenWorker deletes image files left behind by removed or re-imaged products.
type ImagenWorker struct {
	storage ImagenRemover
}

func NewImagenWorker(storage ImagenRemover) *ImagenWorker {
	return &ImagenWorker{storage: storage}
}

func (w *ImagenWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload ImagenJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if payload.Nombre == "" {
		return errors.New("imagen_worker: empty nombre")
	}
	if err := w.storage.Eliminar(payload.Nombre); err != nil {
		return err
	}
	log.Info().Str("imagen", payload.Nombre).Msg("imagen_worker: image deleted")
	return nil
}
