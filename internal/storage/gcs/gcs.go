// Package gcs хранит отслеживаемое состояние JSON-объектом в Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"freegamesbot/internal/model"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"
)

// Backend - имя хранилища в ошибках и логах
const Backend = "gcs"

// Значения по умолчанию
const (
	DefaultBucket = "epic-games-bot-data"
	DefaultObject = "tracked_games.json"
)

const contentType = "application/json"

// Config содержит параметры хранилища
type Config struct {
	Bucket          string
	Object          string
	CredentialsFile string
	// Endpoint переопределяет адрес API (эмулятор или тесты)
	Endpoint string
	// Location задает часовой пояс для дат старого формата
	Location *time.Location
}

// record - запись объекта состояния
type record struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	AddedDate string `json:"addedDate"`
}

// Store хранит состояние в объекте бакета
type Store struct {
	service *storagev1.Service
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore создает клиент Cloud Storage
func NewStore(ctx context.Context, config Config, logger *zap.Logger, opts ...option.ClientOption) (*Store, error) {
	if config.Bucket == "" {
		config.Bucket = DefaultBucket
	}
	if config.Object == "" {
		config.Object = DefaultObject
	}
	if config.Location == nil {
		config.Location = time.UTC
	}

	clientOpts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	if config.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(config.CredentialsFile))
	}
	if config.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(config.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := storagev1.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	logger.Info("Cloud Storage client created",
		zap.String("bucket", config.Bucket),
		zap.String("object", config.Object))

	return &Store{
		service: service,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Name возвращает имя хранилища
func (s *Store) Name() string { return Backend }

// Load скачивает объект состояния. Отсутствующий объект означает пустое состояние.
func (s *Store) Load(ctx context.Context) (model.TrackedState, error) {
	resp, err := s.service.Objects.Get(s.config.Bucket, s.config.Object).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("State object not found, starting with empty state",
				zap.String("bucket", s.config.Bucket),
				zap.String("object", s.config.Object))
			return model.TrackedState{}, nil
		}
		return nil, model.NewStateIOError(model.OpLoad, Backend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewStateIOError(model.OpLoad, Backend, fmt.Errorf("read object: %w", err))
	}

	state, err := s.decode(body)
	if err != nil {
		return nil, model.NewStateIOError(model.OpLoad, Backend, err)
	}

	s.logger.Debug("Loaded state object", zap.Int("tracked", len(state)))
	return state, nil
}

// Save загружает состояние в объект целиком
func (s *Store) Save(ctx context.Context, state model.TrackedState) error {
	records := make([]record, 0, len(state))
	for _, item := range state {
		records = append(records, record{
			Title:     item.Title,
			URL:       item.URL,
			AddedDate: model.FormatDate(item.AddedDate),
		})
	}

	body, err := json.Marshal(records)
	if err != nil {
		return model.NewStateIOError(model.OpSave, Backend, err)
	}

	object := &storagev1.Object{Name: s.config.Object, ContentType: contentType}
	_, err = s.service.Objects.Insert(s.config.Bucket, object).
		Media(bytes.NewReader(body), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return model.NewStateIOError(model.OpSave, Backend, err)
	}

	s.logger.Info("State object uploaded",
		zap.String("bucket", s.config.Bucket),
		zap.Int("tracked", len(state)))
	return nil
}

// Ping проверяет доступ к бакету
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.service.Buckets.Get(s.config.Bucket).Context(ctx).Do()
	return err
}

// decode разбирает объект. Старый формат - массив заголовков без дат,
// таким записям ставится текущая дата.
func (s *Store) decode(body []byte) (model.TrackedState, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.TrackedState{}, nil
	}

	var records []record
	if err := json.Unmarshal(body, &records); err == nil {
		state := make(model.TrackedState, 0, len(records))
		for i, rec := range records {
			added, err := model.ParseDate(rec.AddedDate)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %v", model.ErrCorruptState, i, err)
			}
			state = append(state, model.TrackedItem{Title: rec.Title, URL: rec.URL, AddedDate: added})
		}
		return state, nil
	}

	var titles []string
	if err := json.Unmarshal(body, &titles); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrCorruptState, err)
	}

	today := model.Today(s.now(), s.config.Location)
	state := make(model.TrackedState, 0, len(titles))
	for _, title := range titles {
		state = append(state, model.TrackedItem{Title: title, AddedDate: today})
	}

	s.logger.Warn("Loaded legacy state object without dates", zap.Int("tracked", len(state)))
	return state, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
