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

package splitter

import (
	"testing"

	"campus-assistant/internal/pipeline/common"
)

func TestTokenSplitter_Split(t *testing.T) {
	s, err := NewTokenSplitter(3, 1)
	if err != nil {
		t.Fatalf("NewTokenSplitter: %v", err)
	}
	chunks, err := s.Split("a b c d e f g")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []string{"a b c", "c d e", "e f g", "g"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks (%q), want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestTokenSplitter_EmptyContent(t *testing.T) {
	s, err := NewTokenSplitter(5, 0)
	if err != nil {
		t.Fatalf("NewTokenSplitter: %v", err)
	}
	chunks, err := s.Split("   ")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("blank content should yield 0 chunks, got %d", len(chunks))
	}
}

func TestTokenSplitter_Guard(t *testing.T) {
	if _, err := NewTokenSplitter(3, 3); !common.IsChunkingConfigurationError(err) {
		t.Fatalf("expected chunking configuration error, got %v", err)
	}
}

func TestEngine(t *testing.T) {
	e, err := NewEngine(4, 1)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	names := e.GetSplitters()
	if len(names) != 2 || names[0] != "token" || names[1] != "window" {
		t.Fatalf("splitters: %v", names)
	}
	chunks, err := e.Split("abcdefghij", "window")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 4 {
		t.Errorf("window chunks: %q", chunks)
	}
	if _, err := e.Split("abc", "semantic"); err == nil {
		t.Error("unknown splitter should fail")
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	if _, err := NewEngine(100, 100); !common.IsChunkingConfigurationError(err) {
		t.Fatalf("expected chunking configuration error, got %v", err)
	}
}
