package gcs

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"freegamesbot/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	testBucket = "test-bucket"
	testObject = "tracked_games.json"
)

// fakeGCS эмулирует нужную часть JSON API Cloud Storage
type fakeGCS struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads int
	fail    bool
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		writeError(w, http.StatusInternalServerError, "backend error")
		return
	}

	objectPrefix := "/storage/v1/b/" + testBucket + "/o/"
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, objectPrefix):
		name := strings.TrimPrefix(r.URL.Path, objectPrefix)
		body, ok := f.objects[name]
		if !ok {
			writeError(w, http.StatusNotFound, "No such object")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)

	case r.Method == http.MethodPost && r.URL.Path == "/upload/storage/v1/b/"+testBucket+"/o":
		media, err := readMultipartMedia(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.objects[testObject] = media
		f.uploads++
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"`+testObject+`","bucket":"`+testBucket+`"}`)

	case r.Method == http.MethodGet && r.URL.Path == "/storage/v1/b/"+testBucket:
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"`+testBucket+`"}`)

	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

// readMultipartMedia возвращает вторую часть multipart/related запроса (данные объекта)
func readMultipartMedia(r *http.Request) ([]byte, error) {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	reader := multipart.NewReader(r.Body, params["boundary"])

	var media []byte
	for i := 0; ; i++ {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		if i == 1 {
			media = data
		}
	}
	return media, nil
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, `{"error":{"code":`+strconv.Itoa(code)+`,"message":"`+message+`"}}`)
}

func newTestStore(t *testing.T, fake *fakeGCS) *Store {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewStore(context.Background(), Config{
		Bucket:   testBucket,
		Object:   testObject,
		Endpoint: server.URL + "/storage/v1/",
	}, zap.NewNop(), option.WithoutAuthentication(), option.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return store
}

func TestStore_LoadMissingObject(t *testing.T) {
	store := newTestStore(t, &fakeGCS{objects: map[string][]byte{}})

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Equal(t, Backend, store.Name())
}

func TestStore_SaveThenLoad(t *testing.T) {
	fake := &fakeGCS{objects: map[string][]byte{}}
	store := newTestStore(t, fake)
	state := model.TrackedState{
		{Title: "Game A", URL: "https://x/a", AddedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "Game B", URL: "https://x/b", AddedDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, store.Save(context.Background(), state))
	assert.Equal(t, 1, fake.uploads)
	assert.JSONEq(t,
		`[{"title":"Game A","url":"https://x/a","addedDate":"2024-03-01"},
		  {"title":"Game B","url":"https://x/b","addedDate":"2024-03-05"}]`,
		string(fake.objects[testObject]))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestStore_LoadLegacyTitles(t *testing.T) {
	fake := &fakeGCS{objects: map[string][]byte{testObject: []byte(`["Old Game","Other Game"]`)}}
	store := newTestStore(t, fake)
	store.now = func() time.Time { return time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC) }

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, state, 2)
	assert.Equal(t, "Old Game", state[0].Title)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), state[0].AddedDate)
}

func TestStore_LoadCorruptObject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "не JSON", body: `tracked games`},
		{name: "некорректная дата", body: `[{"title":"A","url":"u","addedDate":"2024-13-01"}]`},
		{name: "объект вместо массива", body: `{"title":"A"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeGCS{objects: map[string][]byte{testObject: []byte(tt.body)}}
			store := newTestStore(t, fake)

			_, err := store.Load(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrCorruptState)
		})
	}
}

func TestStore_BackendError(t *testing.T) {
	fake := &fakeGCS{objects: map[string][]byte{}, fail: true}
	store := newTestStore(t, fake)

	_, err := store.Load(context.Background())
	var ioErr *model.StateIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, model.OpLoad, ioErr.Op)

	err = store.Save(context.Background(), model.TrackedState{})
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, model.OpSave, ioErr.Op)

	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t, &fakeGCS{objects: map[string][]byte{}})
	assert.NoError(t, store.Ping(context.Background()))
}
