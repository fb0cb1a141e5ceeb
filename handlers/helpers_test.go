// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/danielhkuo/jamhub/form"
	"github.com/danielhkuo/jamhub/testutil"
)

// jamForm is a registration form with a select+other question and a text
// question that only shows for programmers
func jamForm() []form.Question {
	return []form.Question{
		{
			ID: "role", Type: form.TypeSingle, Title: "Role", Required: true,
			Options: []form.Option{{ID: "prog", Label: "Programmer"}, {ID: "art", Label: "Artist"}},
		},
		{
			ID: "engine", Type: form.TypeSelect, Title: "Engine", Required: true, AllowOther: true,
			Options: []form.Option{{ID: "unity", Label: "Unity"}, {ID: "godot", Label: "Godot"}},
		},
		{
			ID: "languages", Type: form.TypeText, Title: "Languages", Required: true,
			DependsOn: &form.Dependency{QuestionID: "role", OptionID: "prog"},
		},
		{
			ID: "tools", Type: form.TypeMulti, Title: "Tools",
			Options: []form.Option{{ID: "blender", Label: "Blender"}, {ID: "aseprite", Label: "Aseprite"}},
		},
	}
}

// serve runs h on a request built by testutil.MakeRequest with path values set
func serve(h http.HandlerFunc, method, path string, body interface{}, headers map[string]string, pathValues map[string]string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest(method, path, body, headers)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// memCache is an in-process cache.Cache for tests
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
