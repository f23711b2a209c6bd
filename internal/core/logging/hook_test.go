package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantKeys  []string
		wantEmpty []string
	}{
		{
			name: "both task and run_id",
			setupCtx: func() context.Context {
				ctx := context.Background()
				ctx = WithTask(ctx, "docs")
				ctx = WithRunID(ctx, "run-456")
				return ctx
			},
			wantKeys: []string{"task", "run_id"},
		},
		{
			name: "only task",
			setupCtx: func() context.Context {
				return WithTask(context.Background(), "docs")
			},
			wantKeys:  []string{"task"},
			wantEmpty: []string{"run_id"},
		},
		{
			name: "only run_id",
			setupCtx: func() context.Context {
				return WithRunID(context.Background(), "run-456")
			},
			wantKeys:  []string{"run_id"},
			wantEmpty: []string{"task"},
		},
		{
			name:      "no context values",
			setupCtx:  context.Background,
			wantEmpty: []string{"task", "run_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := tt.setupCtx()

			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(ctx).Msg("test")

			var logEntry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("failed to parse log: %v", err)
			}

			for _, key := range tt.wantKeys {
				if _, ok := logEntry[key]; !ok {
					t.Errorf("expected %s to be present in log", key)
				}
			}

			for _, key := range tt.wantEmpty {
				if _, ok := logEntry[key]; ok {
					t.Errorf("expected %s to be absent from log", key)
				}
			}
		})
	}
}
