package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/chat"
	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/db"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/rag"
)

var chatCfg = &config.Chat{DefaultTitle: "New Chat", TitleLength: 30}

type answererCalls struct {
	query, direct int
}

func newAnswerer(calls *answererCalls) *chat.StubAnswerer {
	return &chat.StubAnswerer{
		QueryFunc: func(_ context.Context, q string) (rag.Answer, error) {
			calls.query++
			return rag.Answer{Text: "from docs: " + q, Sources: []string{"cv.pdf"}}, nil
		},
		DirectFunc: func(_ context.Context, q string) (string, error) {
			calls.direct++
			return "general: " + q, nil
		},
	}
}

func newService(repo chat.Repository, answerer chat.Answerer, keywords ...string) chat.Service {
	return chat.NewService(repo, db.PassthroughTxManager{}, answerer, chat.NewRouter(keywords, nil), chatCfg)
}

func TestService_CreateSession(t *testing.T) {
	t.Parallel()

	repo := chat.NewMemoryRepository()
	svc := newService(repo, &chat.StubAnswerer{})
	ctx := context.Background()

	tests := []struct {
		name, title, want string
	}{
		{"Given title", "Trip planning", "Trip planning"},
		{"Default title", "", "New Chat"},
		{"Blank title", "   ", "New Chat"},
	}
	for _, tt := range tests {
		session, err := svc.CreateSession(ctx, "alice", tt.title)
		if err != nil {
			t.Fatalf("%s: svc.CreateSession() = %v, want: %v", tt.name, err, nil)
		}
		if session.Title != tt.want {
			t.Errorf("%s: session.Title = %q, want: %q", tt.name, session.Title, tt.want)
		}
		if session.ID == "" || session.CreatedAt.IsZero() || !session.CreatedAt.Equal(session.UpdatedAt) {
			t.Errorf("%s: session = %+v", tt.name, session)
		}
	}

	if repo.SessionCount() != len(tests) {
		t.Errorf("repo.SessionCount() = %d, want: %d", repo.SessionCount(), len(tests))
	}
}

func TestService_ChatNewSession(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	repo := chat.NewMemoryRepository()
	svc := newService(repo, newAnswerer(&calls), "resume")
	ctx := context.Background()

	msg := "Please summarise the resume of the candidate"
	res, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: msg, SearchDocuments: true})
	if err != nil {
		t.Fatalf("svc.Chat() = %v, want: %v", err, nil)
	}

	if calls.query != 1 || calls.direct != 0 {
		t.Errorf("calls = %+v, want one query", calls)
	}
	if res.Answer != "from docs: "+msg {
		t.Errorf("res.Answer = %q", res.Answer)
	}
	if strings.Join(res.Sources, ",") != "cv.pdf" {
		t.Errorf("res.Sources = %v, want: [cv.pdf]", res.Sources)
	}

	if len(res.History) != 2 {
		t.Fatalf("len(res.History) = %d, want: %d", len(res.History), 2)
	}
	user, assistant := res.History[0], res.History[1]
	if user.Role != chat.RoleUser || !user.SearchUsed || len(user.Sources) != 0 {
		t.Errorf("user message = %+v", user)
	}
	if assistant.Role != chat.RoleAssistant || !assistant.SearchUsed || assistant.Sources[0] != "cv.pdf" {
		t.Errorf("assistant message = %+v", assistant)
	}

	session, err := svc.GetSession(ctx, "alice", res.SessionID)
	if err != nil {
		t.Fatalf("svc.GetSession() = %v, want: %v", err, nil)
	}
	if session.Title != "Please summarise the resume of..." {
		t.Errorf("session.Title = %q, want: %q", session.Title, "Please summarise the resume of...")
	}
	if len(session.Messages) != 2 {
		t.Errorf("len(session.Messages) = %d, want: %d", len(session.Messages), 2)
	}
}

func TestService_ChatRouting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		message    string
		search     bool
		wantQuery  int
		wantDirect int
		wantUsed   bool
	}{
		{"Keyword and search on", "my CV skills", true, 1, 0, true},
		{"No keyword", "what is 2+2", true, 0, 1, false},
		{"Search off overrides keyword", "my CV skills", false, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls answererCalls
			svc := newService(chat.NewMemoryRepository(), newAnswerer(&calls), "cv")

			res, err := svc.Chat(context.Background(), "alice", chat.ChatParams{Message: tt.message, SearchDocuments: tt.search})
			if err != nil {
				t.Fatal(err)
			}

			if calls.query != tt.wantQuery || calls.direct != tt.wantDirect {
				t.Errorf("calls = %+v, want query=%d direct=%d", calls, tt.wantQuery, tt.wantDirect)
			}
			if res.History[0].SearchUsed != tt.search {
				t.Errorf("user SearchUsed = %v, want: %v", res.History[0].SearchUsed, tt.search)
			}
			if res.History[1].SearchUsed != tt.wantUsed {
				t.Errorf("assistant SearchUsed = %v, want: %v", res.History[1].SearchUsed, tt.wantUsed)
			}
			if !tt.wantUsed && (res.Sources == nil || len(res.Sources) != 0) {
				t.Errorf("res.Sources = %#v, want empty", res.Sources)
			}
		})
	}
}

func TestService_ChatExistingSession(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	repo := chat.NewMemoryRepository()
	svc := newService(repo, newAnswerer(&calls))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "first question", SessionID: session.ID, SearchDocuments: true})
	if err != nil {
		t.Fatal(err)
	}
	if first.SessionID != session.ID {
		t.Errorf("first.SessionID = %q, want: %q", first.SessionID, session.ID)
	}

	got, err := svc.GetSession(ctx, "alice", session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "first question" {
		t.Errorf("title after first turn = %q, want: %q", got.Title, "first question")
	}

	second, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "second question", SessionID: session.ID, SearchDocuments: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(second.History) != 4 {
		t.Errorf("len(second.History) = %d, want: %d", len(second.History), 4)
	}

	got, err = svc.GetSession(ctx, "alice", session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "first question" {
		t.Errorf("title after second turn = %q, want: %q", got.Title, "first question")
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestService_ChatUnknownSessionStartsNew(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	repo := chat.NewMemoryRepository()
	svc := newService(repo, newAnswerer(&calls))
	ctx := context.Background()

	tests := []string{"", "not-a-uuid", "0b7e5c2a-2f1f-4b0e-9c8e-6a0f4f1d2e3c"}
	for _, id := range tests {
		res, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "hello", SessionID: id, SearchDocuments: true})
		if err != nil {
			t.Fatalf("svc.Chat(session %q) = %v, want: %v", id, err, nil)
		}
		if res.SessionID == id {
			t.Errorf("svc.Chat(session %q) reused the unknown ID", id)
		}
	}

	if repo.SessionCount() != len(tests) {
		t.Errorf("repo.SessionCount() = %d, want: %d", repo.SessionCount(), len(tests))
	}
}

func TestService_ChatOtherOwnersSession(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	svc := newService(chat.NewMemoryRepository(), newAnswerer(&calls))
	ctx := context.Background()

	bobs, err := svc.CreateSession(ctx, "bob", "")
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "hi", SessionID: bobs.ID, SearchDocuments: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionID == bobs.ID {
		t.Error("alice wrote into bob's session")
	}

	if _, err := svc.GetSession(ctx, "alice", bobs.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("svc.GetSession(other owner) = %v, want: %v", err, chat.ErrSessionNotFound)
	}
}

func TestService_ChatFailuresPersistNothing(t *testing.T) {
	t.Parallel()

	repo := chat.NewMemoryRepository()
	answerer := &chat.StubAnswerer{
		QueryFunc: func(context.Context, string) (rag.Answer, error) { return rag.Answer{}, llm.ErrUnavailable },
	}
	svc := newService(repo, answerer)

	_, err := svc.Chat(context.Background(), "alice", chat.ChatParams{Message: "hello", SearchDocuments: true})
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("svc.Chat() = %v, want: %v", err, llm.ErrUnavailable)
	}
	if repo.SessionCount() != 0 {
		t.Errorf("repo.SessionCount() = %d, want: %d", repo.SessionCount(), 0)
	}
}

func TestService_ChatTxError(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	wantErr := errors.New("tx failed")
	txMgr := &db.StubTxManager{
		RunInTxFunc: func(context.Context, func(context.Context) error) error { return wantErr },
	}
	svc := chat.NewService(chat.NewMemoryRepository(), txMgr, newAnswerer(&calls), chat.NewRouter(nil, nil), chatCfg)

	if _, err := svc.Chat(context.Background(), "alice", chat.ChatParams{Message: "hello", SearchDocuments: true}); !errors.Is(err, wantErr) {
		t.Errorf("svc.Chat() = %v, want: %v", err, wantErr)
	}
}

func TestService_ListAndDeleteSessions(t *testing.T) {
	t.Parallel()

	var calls answererCalls
	svc := newService(chat.NewMemoryRepository(), newAnswerer(&calls))
	ctx := context.Background()

	first, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "one", SearchDocuments: true})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Chat(ctx, "alice", chat.ChatParams{Message: "two", SearchDocuments: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateSession(ctx, "bob", ""); err != nil {
		t.Fatal(err)
	}

	sessions, err := svc.ListSessions(ctx, "alice")
	if err != nil {
		t.Fatalf("svc.ListSessions() = %v, want: %v", err, nil)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want: %d", len(sessions), 2)
	}
	if sessions[0].ID != second.SessionID && !sessions[0].UpdatedAt.Equal(sessions[1].UpdatedAt) {
		t.Errorf("sessions[0].ID = %q, want most recent %q", sessions[0].ID, second.SessionID)
	}
	for _, s := range sessions {
		if len(s.Messages) != 2 {
			t.Errorf("session %s has %d messages, want: %d", s.ID, len(s.Messages), 2)
		}
	}

	if err := svc.DeleteSession(ctx, "alice", first.SessionID); err != nil {
		t.Fatalf("svc.DeleteSession() = %v, want: %v", err, nil)
	}
	if err := svc.DeleteSession(ctx, "alice", first.SessionID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("second svc.DeleteSession() = %v, want: %v", err, chat.ErrSessionNotFound)
	}
	if err := svc.DeleteSession(ctx, "alice", "garbage"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("svc.DeleteSession(garbage) = %v, want: %v", err, chat.ErrSessionNotFound)
	}
}
