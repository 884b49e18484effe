package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubClient counts calls and returns a fixed result.
type stubClient struct {
	calls int
	raw   json.RawMessage
	err   error
}

func (s *stubClient) GenerateJSON(_ context.Context, _ *GenerateInput) (json.RawMessage, error) {
	s.calls++
	return s.raw, s.err
}

func (s *stubClient) ModelTag() string {
	return "stub/model"
}
