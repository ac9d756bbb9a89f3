package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/chatall/pkg/chatall"
	"github.com/japaniel/chatall/pkg/db"
	"github.com/japaniel/chatall/pkg/dictionary"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type inbox struct {
	mu    sync.Mutex
	lines []string
}

func (b *inbox) Send(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, text)
	return nil
}

func (b *inbox) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

type echoCommands struct{}

func (echoCommands) Execute(speaker string, args []string) []string {
	return []string{speaker + " ran " + strings.Join(args, ",")}
}

func newTestPipeline(t *testing.T) *chatall.Pipeline {
	t.Helper()
	store := dictionary.New(dictionary.WithLogger(quiet))
	_, err := store.Insert("kyou", "今日")
	require.NoError(t, err)
	return chatall.NewPipeline(store, chatall.PhoneticFunc(func(s string) string {
		if s == "ohayou" {
			return "おはよう"
		}
		return s
	}))
}

func TestFormatter(t *testing.T) {
	line := chatall.Line{Speaker: "alice", Context: "lobby", Text: "ohayou"}
	res := chatall.Result{Display: "ohayou", Annotation: "おはよう", Source: chatall.SourcePhonetic}

	assert.Equal(t, "[lobby] alice: ohayou (おはよう)", NewFormatter(false).Format(line, res))
	assert.Equal(t, "[lobby] alice: ohayou (おはよう)", Plain(line, res))
	assert.Equal(t, "[lobby] alice: hi!", Plain(line, chatall.Result{Display: "hi!"}))

	colored := NewFormatter(true).Format(line, res)
	assert.Contains(t, colored, "\x1b[32m")
	assert.Contains(t, colored, "おはよう")
}

func TestHubBroadcastsToEveryRecipient(t *testing.T) {
	hub := NewHub(newTestPipeline(t), WithFormatter(NewFormatter(false)), WithLogger(quiet))
	alice, bob := &inbox{}, &inbox{}
	hub.Join("alice", alice)
	hub.Join("bob", bob)
	assert.Equal(t, []string{"alice", "bob"}, hub.Recipients())

	b, err := hub.Handle(context.Background(), chatall.Line{Speaker: "alice", Context: "lobby", Text: "kyou ha"})
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, 2, b.Recipients)
	assert.Equal(t, chatall.SourceDictionary, b.Result.Source)

	want := []string{"[lobby] alice: kyou ha (今日 ha)"}
	assert.Equal(t, want, alice.all())
	assert.Equal(t, want, bob.all())
}

func TestHubDropsLinesWithoutContext(t *testing.T) {
	hub := NewHub(newTestPipeline(t), WithLogger(quiet))
	box := &inbox{}
	hub.Join("alice", box)
	b, err := hub.Handle(context.Background(), chatall.Line{Speaker: "alice", Text: "ohayou"})
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Empty(t, box.all())
}

func TestHubRoutesCommandsToSpeakerOnly(t *testing.T) {
	hub := NewHub(newTestPipeline(t), WithCommands(echoCommands{}), WithLogger(quiet))
	alice, bob := &inbox{}, &inbox{}
	hub.Join("alice", alice)
	hub.Join("bob", bob)

	_, err := hub.Handle(context.Background(), chatall.Line{Speaker: "alice", Context: "lobby", Text: "/dict add neko 猫"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice ran add,neko,猫"}, alice.all())
	assert.Empty(t, bob.all())
}

func TestHubSendsUnroutedRepliesToOperator(t *testing.T) {
	console := &inbox{}
	hub := NewHub(newTestPipeline(t), WithCommands(echoCommands{}), WithOperator(console), WithLogger(quiet))
	bob := &inbox{}
	hub.Join("bob", bob)

	_, err := hub.Handle(context.Background(), chatall.Line{Speaker: "admin", Context: "lobby", Text: "/dict list"})
	require.NoError(t, err)
	assert.Equal(t, []string{"admin ran list"}, console.all())
	assert.Empty(t, bob.all())
}

func TestHubSkipsFailingRecipient(t *testing.T) {
	hub := NewHub(newTestPipeline(t), WithFormatter(NewFormatter(false)), WithLogger(quiet))
	good := &inbox{}
	hub.Join("good", good)
	hub.Join("bad", RecipientFunc(func(string) error { return errors.New("disconnected") }))

	b, err := hub.Handle(context.Background(), chatall.Line{Speaker: "x", Context: "lobby", Text: "hi!"})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Recipients)
	assert.Equal(t, []string{"[lobby] x: hi!"}, good.all())

	hub.Leave("bad")
	assert.Equal(t, []string{"good"}, hub.Recipients())
}

func TestHubPublishRecordsHistory(t *testing.T) {
	conn := openHistoryDB(t)
	hub := NewHub(newTestPipeline(t),
		WithFormatter(NewFormatter(false)),
		WithHistory(NewHistoryWriter(conn, 10, 0)),
		WithWorkers(2, 8),
		WithLogger(quiet),
	)
	var delivered sync.WaitGroup
	delivered.Add(2)
	hub.OnBroadcast = func(Broadcast) { delivered.Done() }
	hub.Start(context.Background())

	require.NoError(t, hub.Publish(context.Background(), chatall.Line{Speaker: "alice", Context: "lobby", Text: "ohayou"}))
	require.NoError(t, hub.Publish(context.Background(), chatall.Line{Speaker: "bob", Context: "survival", Text: "gg!"}))

	waitCh := make(chan struct{})
	go func() { delivered.Wait(); close(waitCh) }()
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for broadcasts")
	}
	require.NoError(t, hub.Close())

	msgs, err := db.RecentMessages(context.Background(), conn, "lobby", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "おはよう", msgs[0].Annotation)
	assert.Equal(t, "phonetic", msgs[0].AnnotationSource)

	assert.ErrorIs(t, hub.Publish(context.Background(), chatall.Line{Context: "lobby", Text: "late"}), ErrPoolClosed)
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("/dict list"))
	assert.True(t, IsCommand("  /DICT"))
	assert.False(t, IsCommand("/dictionary"))
	assert.False(t, IsCommand("hello /dict"))
	assert.Equal(t, []string{"add", "a", "b"}, CommandArgs("/dict  add a   b"))
}
