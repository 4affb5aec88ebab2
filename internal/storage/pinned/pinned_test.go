package pinned

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"freegamesbot/internal/model"
	"freegamesbot/internal/tracker"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testChannel = "chan-1"
	testBot     = "bot-1"
)

type fakeMessenger struct {
	pinned  []*discordgo.Message
	sent    []string
	edits   map[string]string
	pins    []string
	pinErr  error
	listErr error
	editErr error
	nextID  int
}

func newFakeMessenger(pinned ...*discordgo.Message) *fakeMessenger {
	return &fakeMessenger{pinned: pinned, edits: map[string]string{}}
}

func (f *fakeMessenger) BotUserID() string { return testBot }

func (f *fakeMessenger) PinnedMessages(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pinned, nil
}

func (f *fakeMessenger) SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	f.nextID++
	f.sent = append(f.sent, content)
	return &discordgo.Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: testBot},
	}, nil
}

func (f *fakeMessenger) PinMessage(ctx context.Context, channelID, messageID string) error {
	if f.pinErr != nil {
		return f.pinErr
	}
	f.pins = append(f.pins, messageID)
	return nil
}

func (f *fakeMessenger) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edits[messageID] = content
	return nil
}

func message(id, authorID, content string) *discordgo.Message {
	return &discordgo.Message{ID: id, Content: content, Author: &discordgo.User{ID: authorID}}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_LoadWithoutMessage(t *testing.T) {
	fake := newFakeMessenger(message("1", "someone", "hello"))
	store := NewStore(fake, testChannel, tracker.NewCodec(true), zap.NewNop())

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state)
	assert.Equal(t, Backend, store.Name())
}

func TestStore_LoadDecodesTracker(t *testing.T) {
	codec := tracker.NewCodec(true)
	content := codec.Encode(model.TrackedState{
		{Title: "Game A", URL: "https://x/a", AddedDate: date(2024, 3, 1)},
	})
	fake := newFakeMessenger(message("1", testBot, content))
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, state, 1)
	assert.Equal(t, "Game A", state[0].Title)
	assert.Equal(t, date(2024, 3, 1), state[0].AddedDate)
}

func TestStore_LoadSkipsForeignTracker(t *testing.T) {
	codec := tracker.NewCodec(true)
	foreign := codec.Encode(model.TrackedState{
		{Title: "Foreign", URL: "https://x/f", AddedDate: date(2024, 3, 1)},
	})
	fake := newFakeMessenger(message("1", "other-bot", foreign))
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	state, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestStore_LoadCorrupt(t *testing.T) {
	codec := tracker.NewCodec(true)
	content := codec.Prefix() + "- [Bad](https://x/b) - Added on 2024-02-30\n"
	fake := newFakeMessenger(message("1", testBot, content))
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	_, err := store.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrCorruptState)
	var ioErr *model.StateIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, model.OpLoad, ioErr.Op)
}

func TestStore_LoadListError(t *testing.T) {
	fake := newFakeMessenger()
	fake.listErr = errors.New("forbidden")
	store := NewStore(fake, testChannel, tracker.NewCodec(true), zap.NewNop())

	_, err := store.Load(context.Background())

	var ioErr *model.StateIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, Backend, ioErr.Backend)
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_SaveCreatesAndPins(t *testing.T) {
	codec := tracker.NewCodec(true)
	fake := newFakeMessenger()
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	err := store.Save(context.Background(), model.TrackedState{})

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, codec.Prefix()+tracker.EmptyNotice, fake.sent[0])
	assert.Equal(t, []string{"msg-1"}, fake.pins)
}

func TestStore_SaveEditsExisting(t *testing.T) {
	codec := tracker.NewCodec(true)
	fake := newFakeMessenger(message("42", testBot, codec.Encode(nil)))
	store := NewStore(fake, testChannel, codec, zap.NewNop())
	state := model.TrackedState{
		{Title: "Game A", URL: "https://x/a", AddedDate: date(2024, 3, 1)},
	}

	err := store.Save(context.Background(), state)

	require.NoError(t, err)
	assert.Empty(t, fake.sent)
	assert.Equal(t, codec.Encode(state), fake.edits["42"])
}

func TestStore_SaveUnchangedSkipsEdit(t *testing.T) {
	codec := tracker.NewCodec(true)
	fake := newFakeMessenger(message("42", testBot, codec.Encode(nil)))
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	require.NoError(t, store.Save(context.Background(), nil))
	assert.Empty(t, fake.edits)
}

func TestStore_SavePinError(t *testing.T) {
	fake := newFakeMessenger()
	fake.pinErr = errors.New("missing permissions")
	store := NewStore(fake, testChannel, tracker.NewCodec(true), zap.NewNop())

	err := store.Save(context.Background(), nil)

	var ioErr *model.StateIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, model.OpSave, ioErr.Op)
}

func TestStore_SaveTrimsOldest(t *testing.T) {
	codec := tracker.NewCodec(true)
	fake := newFakeMessenger()
	store := NewStore(fake, testChannel, codec, zap.NewNop())

	state := model.TrackedState{}
	for i := 0; i < 60; i++ {
		state = append(state, model.TrackedItem{
			Title:     fmt.Sprintf("Game number %02d with a long title", i),
			URL:       fmt.Sprintf("https://store.example.com/p/game-%02d", i),
			AddedDate: date(2024, 3, 1),
		})
	}

	require.NoError(t, store.Save(context.Background(), state))
	require.Len(t, fake.sent, 1)

	content := fake.sent[0]
	assert.LessOrEqual(t, len([]rune(content)), MaxMessageLength)
	assert.NotContains(t, content, "Game number 00 ")
	assert.True(t, strings.Contains(content, "Game number 59 "))

	decoded, err := codec.Decode(content)
	require.NoError(t, err)
	assert.Equal(t, state[len(state)-len(decoded):], decoded)
}

func TestStore_MissingChannel(t *testing.T) {
	store := NewStore(newFakeMessenger(), "", tracker.NewCodec(true), zap.NewNop())

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
