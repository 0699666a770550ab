package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"гречка 250г", 20, "гречка 250г"},
		{"куриная грудка 150г", 10, "куриная..."},
		{"abcdef", 3, "..."},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, truncateString(tt.in, tt.max))
	}
}

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Empty(t, TraceID(ctx))
	require.Equal(t, "abc", TraceID(WithTraceID(ctx, "abc")))
}

func TestUpdateType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "message", UpdateType(&models.Update{Message: &models.Message{Text: "hi"}}))
	require.Equal(t, "photo", UpdateType(&models.Update{Message: &models.Message{Photo: []models.PhotoSize{{FileID: "x"}}}}))
	require.Equal(t, "callback_query", UpdateType(&models.Update{CallbackQuery: &models.CallbackQuery{}}))
	require.Equal(t, "other", UpdateType(&models.Update{}))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
