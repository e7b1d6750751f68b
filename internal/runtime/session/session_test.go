// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campus-assistant/internal/pipeline/common"
	"campus-assistant/internal/tool"
)

type fakeBackend struct {
	tools   []tool.Descriptor
	listErr error
	closed  int
	calls   []string
}

func (f *fakeBackend) ListTools(ctx context.Context) ([]tool.Descriptor, error) {
	return f.tools, f.listErr
}

func (f *fakeBackend) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	f.calls = append(f.calls, name)
	return "result:" + name, nil
}

func (f *fakeBackend) Close() error {
	f.closed++
	return nil
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{tools: []tool.Descriptor{
		{Name: "get_latest_news"},
		{Name: "query_knowledge_base", Schema: tool.Schema{Type: "object", Required: []string{"query_text"}}},
	}}
}

func TestConnect_BuildsCatalogInOrder(t *testing.T) {
	b := newFakeBackend()
	s, err := Connect(context.Background(), b)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !strings.HasPrefix(s.ID, "session-") {
		t.Errorf("unexpected id %q", s.ID)
	}
	names := s.Catalog().Names()
	if len(names) != 2 || names[0] != "get_latest_news" || names[1] != "query_knowledge_base" {
		t.Errorf("catalog order: %v", names)
	}

	e, ok := s.Catalog().Lookup("get_latest_news")
	if !ok {
		t.Fatal("lookup failed")
	}
	out, err := e.Handler(context.Background(), nil)
	if err != nil || out != "result:get_latest_news" {
		t.Errorf("handler: out=%q err=%v", out, err)
	}
}

func TestConnect_ListError(t *testing.T) {
	b := &fakeBackend{listErr: errors.New("boom")}
	if _, err := Connect(context.Background(), b); err == nil {
		t.Error("expected error")
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	b := newFakeBackend()
	s, err := Connect(context.Background(), b)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()
	_ = s.Close()
	if b.closed != 1 {
		t.Errorf("backend closed %d times", b.closed)
	}
	if !s.Closed() {
		t.Error("session should report closed")
	}
	if _, err := s.CallTool(context.Background(), "get_latest_news", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSession_AddObservation_CopyToolCalls(t *testing.T) {
	s, err := Connect(context.Background(), newFakeBackend())
	if err != nil {
		t.Fatal(err)
	}
	s.AddObservation(ToolCallRecord{Tool: "tool1", Input: map[string]any{"q": "x"}, Outcome: "ok"})
	calls := s.CopyToolCalls()
	if len(calls) != 1 || calls[0].Tool != "tool1" || calls[0].Outcome != "ok" || calls[0].At.IsZero() {
		t.Errorf("CopyToolCalls: %+v", calls)
	}
	calls[0].Tool = "mutated"
	if s.CopyToolCalls()[0].Tool != "tool1" {
		t.Error("CopyToolCalls should return a copy")
	}
}

func TestManager_RunClosesOnEveryPath(t *testing.T) {
	b := newFakeBackend()
	m := NewManager(func(ctx context.Context) (Backend, error) { return b, nil }, 0, nil)

	if err := m.Run(context.Background(), func(ctx context.Context, s *Session) error { return nil }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.closed != 1 {
		t.Fatalf("normal exit: closed=%d", b.closed)
	}

	b = newFakeBackend()
	wantErr := errors.New("turn blew up")
	err := m.Run(context.Background(), func(ctx context.Context, s *Session) error { return wantErr })
	if !errors.Is(err, wantErr) || b.closed != 1 {
		t.Fatalf("error exit: err=%v closed=%d", err, b.closed)
	}

	b = newFakeBackend()
	func() {
		defer func() { _ = recover() }()
		_ = m.Run(context.Background(), func(ctx context.Context, s *Session) error { panic("boom") })
	}()
	if b.closed != 1 {
		t.Fatalf("panic exit: closed=%d", b.closed)
	}

	b = newFakeBackend()
	ctx, cancel := context.WithCancel(context.Background())
	_ = m.Run(ctx, func(ctx context.Context, s *Session) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if b.closed != 1 {
		t.Fatalf("cancel exit: closed=%d", b.closed)
	}
}

func TestManager_ConnectFailureClosesBackend(t *testing.T) {
	b := &fakeBackend{listErr: errors.New("no tools")}
	m := NewManager(func(ctx context.Context) (Backend, error) { return b, nil }, 0, nil)
	called := false
	err := m.Run(context.Background(), func(ctx context.Context, s *Session) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected connect failure, err=%v called=%v", err, called)
	}
	if b.closed != 1 {
		t.Errorf("backend should be closed after failed discovery, closed=%d", b.closed)
	}
}

func TestManager_DialFailure(t *testing.T) {
	m := NewManager(func(ctx context.Context) (Backend, error) {
		return nil, errors.New("exec: toolserver not found")
	}, 0, nil)
	ran := false
	err := m.Run(context.Background(), func(ctx context.Context, s *Session) error {
		ran = true
		return nil
	})
	if !errors.Is(err, common.ErrBackendUnavailable) {
		t.Fatalf("Run error = %v, want ErrBackendUnavailable", err)
	}
	if ran {
		t.Error("fn must not run without a session")
	}
}
