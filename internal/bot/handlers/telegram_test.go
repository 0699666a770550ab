package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"

	"github.com/edgard/kbzhubot/internal/config"
	"github.com/edgard/kbzhubot/internal/database"
	"github.com/edgard/kbzhubot/internal/diary"
	"github.com/edgard/kbzhubot/internal/metrics"
)

// apiCall is one request the handlers made to the Bot API.
type apiCall struct {
	Method   string
	Fields   map[string]string
	Filename string
}

// fakeTelegram records Bot API calls and answers them successfully.
type fakeTelegram struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{Method: path.Base(r.URL.Path), Fields: map[string]string{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				call.Fields[k] = v[0]
			}
			for _, files := range r.MultipartForm.File {
				call.Filename = files[0].Filename
			}
		}
	} else {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			for k, v := range body {
				if s, ok := v.(string); ok {
					call.Fields[k] = s
					continue
				}
				raw, _ := json.Marshal(v)
				call.Fields[k] = string(raw)
			}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch call.Method {
	case "sendMessage", "editMessageText", "sendDocument":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
	}
}

func (f *fakeTelegram) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// texts returns the text of every sendMessage call in order.
func (f *fakeTelegram) texts() []string {
	var out []string
	for _, c := range f.byMethod("sendMessage") {
		out = append(out, c.Fields["text"])
	}
	return out
}

func (f *fakeTelegram) lastText(t *testing.T) string {
	t.Helper()
	texts := f.texts()
	require.NotEmpty(t, texts)
	return texts[len(texts)-1]
}

func (f *fakeTelegram) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type harness struct {
	deps HandlerDeps
	bot  *tgbot.Bot
	api  *fakeTelegram
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := &fakeTelegram{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := tgbot.New("123:TEST", tgbot.WithServerURL(srv.URL), tgbot.WithSkipGetMe())
	require.NoError(t, err)

	db, err := database.NewDB(database.Options{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	cfg := &config.Config{
		Messages: config.DefaultMessages,
		Commands: config.DefaultCommands,
		Diary:    config.DiaryConfig{AgeInput: "age", OperationTimeout: 5 * time.Second},
	}
	svc := diary.NewService(diary.Deps{
		Store:    database.NewStore(db, log),
		Metrics:  m,
		Logger:   log,
		Now:      func() time.Time { return testNow },
		Location: time.UTC,
	})

	return &harness{
		deps: HandlerDeps{Logger: log, Config: cfg, Diary: svc, Metrics: m},
		bot:  b,
		api:  api,
	}
}

const (
	testChatID = 500
	testUserID = 77
)

// lastMessageID hands out increasing message IDs, as Telegram does per chat.
var lastMessageID atomic.Int64

func textUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   int(lastMessageID.Add(1)),
			Chat: models.Chat{ID: testChatID},
			From: &models.User{ID: testUserID, FirstName: "Иван", Username: "ivan"},
			Text: text,
		},
	}
}

func callbackUpdate(data string) *models.Update {
	return &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: testUserID, FirstName: "Иван"},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: 20, Chat: models.Chat{ID: testChatID}},
			},
		},
	}
}
