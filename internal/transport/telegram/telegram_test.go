package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

func TestSplitTelegramText(t *testing.T) {
	t.Parallel()

	if got := splitTelegramText("short", 10, ""); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split = %q", got)
	}

	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(text, 10, "")
	if len(got) != 2 || got[0] != "aaaaaa" || got[1] != "bbbbbb" {
		t.Fatalf("newline split = %q", got)
	}

	long := strings.Repeat("x", 25)
	got = splitTelegramText(long, 10, "")
	if len(got) != 3 {
		t.Fatalf("hard split chunks = %d, want 3", len(got))
	}
	if strings.Join(got, "") != long {
		t.Fatalf("hard split lost data: %q", got)
	}
}

func TestSplitTelegramTextAvoidsDanglingTag(t *testing.T) {
	t.Parallel()
	got := splitTelegramText("abcdef<b>xyz</b>", 8, "HTML")
	if got[0] != "abcdef" {
		t.Fatalf("first chunk = %q, want tag moved to next chunk", got[0])
	}
	if !strings.HasPrefix(got[1], "<b>") {
		t.Fatalf("second chunk = %q", got[1])
	}
}

type botAPI struct {
	mu    sync.Mutex
	texts []string
	chats []string
	fail  bool
}

func (b *botAPI) handler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	var params map[string]any
	_ = json.Unmarshal(raw, &params)

	b.mu.Lock()
	b.texts = append(b.texts, toString(params["text"]))
	b.chats = append(b.chats, toString(params["chat_id"]))
	n := len(b.texts)
	fail := b.fail
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": 100 + n,
			"date":       0,
			"chat":       map[string]any{"id": 42, "type": "private"},
			"text":       toString(params["text"]),
		},
	})
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func newTestAdapter(t *testing.T, api *botAPI) *Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	a, err := New(Config{Token: "123:abc", URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestSendTextDelivers(t *testing.T) {
	api := &botAPI{}
	a := newTestAdapter(t, api)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{Chat: "42"}, "hello", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if ref.Chat != "42" || ref.MessageID != 101 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 || api.texts[0] != "hello" {
		t.Fatalf("server saw %q", api.texts)
	}
	if api.chats[0] != "42" {
		t.Fatalf("chat_id = %q, want 42", api.chats[0])
	}
}

func TestSendTextSplitsLongMessages(t *testing.T) {
	api := &botAPI{}
	a := newTestAdapter(t, api)

	text := strings.Repeat("z", telegramTextLimit+10)
	if _, err := a.SendText(context.Background(), kit.ChatTarget{Chat: "42"}, text, nil); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 2 {
		t.Fatalf("sent %d chunks, want 2", len(api.texts))
	}
}

func TestSendTextReportsAPIError(t *testing.T) {
	api := &botAPI{fail: true}
	a := newTestAdapter(t, api)

	if _, err := a.SendText(context.Background(), kit.ChatTarget{Chat: "42"}, "hello", nil); err == nil {
		t.Fatal("expected error from failing Bot API")
	}
}

func TestSendTextToUsername(t *testing.T) {
	api := &botAPI{}
	a := newTestAdapter(t, api)

	for _, chat := range []string{"@my_channel", "my_channel"} {
		if _, err := a.SendText(context.Background(), kit.ChatTarget{Chat: chat}, "hello", nil); err != nil {
			t.Fatalf("SendText(%q): %v", chat, err)
		}
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	for i, got := range api.chats {
		if got != "@my_channel" {
			t.Fatalf("chat_id[%d] = %q, want @my_channel", i, got)
		}
	}
}

func TestRecipient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		chat string
		want string
	}{
		{chat: "42", want: "42"},
		{chat: " -1001234567890 ", want: "-1001234567890"},
		{chat: "@name", want: "@name"},
		{chat: "name", want: "@name"},
	}
	for _, tt := range tests {
		r, err := recipient(kit.ChatTarget{Chat: tt.chat})
		if err != nil {
			t.Fatalf("recipient(%q): %v", tt.chat, err)
		}
		if got := r.Recipient(); got != tt.want {
			t.Fatalf("recipient(%q) = %q, want %q", tt.chat, got, tt.want)
		}
	}
	if _, err := recipient(kit.ChatTarget{Chat: " "}); err == nil {
		t.Fatal("expected error for empty chat")
	}
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
