package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicatePrompt_OperatorAccepts(t *testing.T) {
	p := NewDuplicatePrompt(time.Second)
	resolver := p.Resolver()

	result := make(chan bool, 1)
	go func() { result <- resolver(context.Background(), "SHP-1") }()

	// Wait for the prompt to become pending, then answer it.
	require.Eventually(t, func() bool { return p.Pending() == "SHP-1" }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Resolve(true))

	select {
	case proceed := <-result:
		assert.True(t, proceed)
	case <-time.After(time.Second):
		t.Fatal("resolver did not return")
	}
	assert.Empty(t, p.Pending())
}

func TestDuplicatePrompt_OperatorDeclines(t *testing.T) {
	p := NewDuplicatePrompt(time.Second)
	resolver := p.Resolver()

	result := make(chan bool, 1)
	go func() { result <- resolver(context.Background(), "SHP-2") }()

	require.Eventually(t, func() bool { return p.Pending() == "SHP-2" }, time.Second, 5*time.Millisecond)
	assert.True(t, p.Resolve(false))
	assert.False(t, <-result)
}

func TestDuplicatePrompt_TimeoutDeclines(t *testing.T) {
	p := NewDuplicatePrompt(20 * time.Millisecond)
	resolver := p.Resolver()

	assert.False(t, resolver(context.Background(), "SHP-3"))
	assert.Empty(t, p.Pending())
}

func TestDuplicatePrompt_CancelledContextDeclines(t *testing.T) {
	p := NewDuplicatePrompt(time.Minute)
	resolver := p.Resolver()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, resolver(ctx, "SHP-4"))
}

func TestDuplicatePrompt_ResolveWithoutPendingFails(t *testing.T) {
	p := NewDuplicatePrompt(time.Second)
	assert.False(t, p.Resolve(true))
}
