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

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/model/llm"
	"campus-assistant/pkg/config"
	"campus-assistant/pkg/errors"
	"campus-assistant/pkg/log"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Model.Embedding.Provider = "hash"
	cfg.Model.Embedding.Dimension = 64
	return cfg
}

func newTestBootstrap(t *testing.T, cfg *config.Config) *Bootstrap {
	t.Helper()
	b, err := NewBootstrapWithLogger(cfg, log.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNewBootstrap_RequiresConfig(t *testing.T) {
	_, err := NewBootstrap(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidArg)
}

func TestNewBootstrap_UnknownSecretProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Secrets.Provider = "keyring"
	_, err := NewBootstrapWithLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewLLMClient_OpenAIRequiresKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.LLM.Provider = "openai"
	cfg.Model.LLM.APIKey = ""
	b := newTestBootstrap(t, cfg)

	_, err := b.NewLLMClient(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotConfigured)
}

func TestNewLLMClient_ResolvesSecretAndWrapsLimiter(t *testing.T) {
	t.Setenv("CAMPUS_ASSISTANT_TEST_KEY", "sk-test")
	cfg := testConfig(t)
	cfg.Model.LLM.Provider = "openai"
	cfg.Model.LLM.APIKey = "secret:CAMPUS_ASSISTANT_TEST_KEY"
	cfg.RateLimits.LLM = map[string]config.LLMRateLimitConfig{
		"openai": {RequestsPerMinute: 60, MaxConcurrent: 2},
	}
	b := newTestBootstrap(t, cfg)

	client, err := b.NewLLMClient(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimitedClient{}, client)
	assert.Equal(t, "openai", client.Provider())
}

func TestNewLLMClient_MissingSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.LLM.APIKey = "secret:CAMPUS_ASSISTANT_UNSET_KEY"
	b := newTestBootstrap(t, cfg)

	_, err := b.NewLLMClient(context.Background())
	assert.ErrorContains(t, err, "model.llm.api_key")
}

func TestNewSplitter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chunking.Splitter = "token"
	b := newTestBootstrap(t, cfg)

	s, err := b.NewSplitter()
	require.NoError(t, err)
	assert.Equal(t, "token", s.Name())

	cfg.Chunking.Splitter = "sentence"
	_, err = b.NewSplitter()
	assert.Error(t, err)
}

func TestNewKnowledgeGateway_FallsBackToUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Vector.Type = "cassandra"
	b := newTestBootstrap(t, cfg)

	gw := b.NewKnowledgeGateway(context.Background())
	require.NotNil(t, gw)
	assert.False(t, gw.Available())

	_, err := b.OpenKnowledgeGateway(context.Background())
	assert.Error(t, err)
}

func TestNewSessionManager_InProcessDiscoversTools(t *testing.T) {
	b := newTestBootstrap(t, testConfig(t))
	m, err := b.NewSessionManager()
	require.NoError(t, err)

	s, err := m.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()
	assert.ElementsMatch(t,
		[]string{"get_latest_news", "get_college_notifications", "query_knowledge_base"},
		s.Catalog().Names())

	client, err := llm.NewClient(llm.ClientConfig{})
	require.NoError(t, err)
	p, err := b.NewPipeline(client, s)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestNewDialer_Transports(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.Transport = "stdio"
	cfg.Backend.Command = ""
	b := newTestBootstrap(t, cfg)
	_, err := b.NewDialer()
	assert.ErrorIs(t, err, errors.ErrNotConfigured)

	cfg.Backend.Transport = "websocket"
	_, err = b.NewDialer()
	assert.ErrorIs(t, err, errors.ErrInvalidArg)
}
