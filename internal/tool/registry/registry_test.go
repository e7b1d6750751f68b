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

package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assistant/internal/tool"
)

type fakeTool struct {
	name   string
	result tool.Result
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake " + f.name }
func (f *fakeTool) Schema() tool.Schema { return tool.Schema{Type: "object"} }
func (f *fakeTool) Execute(ctx context.Context, input map[string]any) (tool.Result, error) {
	return f.result, nil
}

func TestRegistry_OrderAndDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeTool{name: "zeta"}))
	require.NoError(t, r.Register(&fakeTool{name: "alpha"}))
	assert.Error(t, r.Register(&fakeTool{name: "zeta"}))

	names := []string{}
	for _, d := range r.Descriptors() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha"}, names)

	_, ok := r.Get("alpha")
	assert.True(t, ok)
}

func TestRegistry_Freeze(t *testing.T) {
	r := New()
	r.MustRegister(&fakeTool{name: "a"})
	r.Freeze()
	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.Register(&fakeTool{name: "b"}), ErrFrozen)
	assert.Len(t, r.List(), 1)
}

func TestRegistry_Catalog(t *testing.T) {
	r := New()
	r.MustRegister(
		&fakeTool{name: "ok", result: tool.Result{Content: `["x"]`}},
		&fakeTool{name: "broken", result: tool.Result{Err: "backend down"}},
	)
	c, err := r.Catalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "broken"}, c.Names())

	e, _ := c.Lookup("ok")
	out, err := e.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, out)

	e, _ = c.Lookup("broken")
	_, err = e.Handler(context.Background(), nil)
	assert.EqualError(t, err, "backend down")
}

func TestRegistry_SchemasJSON(t *testing.T) {
	r := New()
	r.MustRegister(&fakeTool{name: "a"})
	raw, err := r.SchemasJSON()
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "a", decoded[0]["name"])
}
