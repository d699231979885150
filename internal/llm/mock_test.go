package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoProvider(t *testing.T) {
	p := NewEchoProvider()

	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are helpful."},
			{Role: RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Echo: hello", resp.Content)
	assert.Equal(t, FinishReasonStop, resp.FinishReason)
}

func TestFixedProvider(t *testing.T) {
	p := NewFixedProvider("always this")

	for i := 0; i < 3; i++ {
		resp, err := p.Chat(context.Background(), ChatRequest{})
		require.NoError(t, err)
		assert.Equal(t, "always this", resp.Content)
	}
	assert.Equal(t, 3, p.CallCount())
}

func TestFixturesProviderRotation(t *testing.T) {
	p := NewFixturesProvider([]string{"one", "two"})

	var got []string
	for i := 0; i < 3; i++ {
		resp, err := p.Chat(context.Background(), ChatRequest{})
		require.NoError(t, err)
		got = append(got, resp.Content)
	}
	assert.Equal(t, []string{"one", "two", "one"}, got)
}

func TestErrorProvider(t *testing.T) {
	p := NewErrorProvider()
	_, err := p.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
}

func TestErrorAfter(t *testing.T) {
	p := NewMockProvider(MockConfig{Mode: MockModeFixed, Responses: []string{"ok"}, ErrorAfter: 1})

	_, err := p.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), ChatRequest{})
	assert.Error(t, err)
}

func TestRequestsRecorded(t *testing.T) {
	p := NewEchoProvider()
	_, err := p.Chat(context.Background(), ChatRequest{Model: "m1"})
	require.NoError(t, err)
	require.Len(t, p.Requests, 1)
	assert.Equal(t, "m1", p.Requests[0].Model)
}
