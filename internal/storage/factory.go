package storage

import (
	"context"
	"fmt"

	"freegamesbot/internal/model"
	"freegamesbot/internal/storage/gcs"
	"freegamesbot/internal/storage/pinned"
	"freegamesbot/internal/tracker"

	"go.uber.org/zap"
)

// Options содержит параметры всех хранилищ; используются поля выбранного
type Options struct {
	Backend string

	// pinned
	ChannelID string
	Messenger pinned.Messenger
	Codec     tracker.Codec

	// postgres
	DatabaseURL string

	// gcs
	GCS gcs.Config

	// memory
	Initial model.TrackedState
}

// New создает хранилище выбранного типа
func New(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	logger = logger.With(zap.String("backend", opts.Backend))

	switch opts.Backend {
	case BackendPinned, "":
		if opts.Messenger == nil {
			return nil, fmt.Errorf("pinned backend requires a messenger")
		}
		return pinned.NewStore(opts.Messenger, opts.ChannelID, opts.Codec, logger), nil

	case BackendPostgres:
		return NewPostgres(ctx, opts.DatabaseURL, logger)

	case BackendGCS:
		return gcs.NewStore(ctx, opts.GCS, logger)

	case BackendMemory:
		logger.Warn("Using in-memory state store, state is lost on restart")
		return NewMemoryStore(opts.Initial), nil

	default:
		return nil, fmt.Errorf("unknown state backend %q", opts.Backend)
	}
}
