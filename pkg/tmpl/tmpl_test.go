package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "hello {{ .Task }}",
			data: map[string]string{"Task": "docs"},
			want: "hello docs",
		},
		{
			name: "struct data",
			tmpl: "{{ .Title }}: {{ .Message }}",
			data: struct {
				Title   string
				Message string
			}{Title: "Sync failed", Message: "push rejected"},
			want: "Sync failed: push rejected",
		},
		{
			name: "no variables",
			tmpl: "static string",
			data: nil,
			want: "static string",
		},
		{
			name:    "missing key errors",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{"Task": "docs"},
			wantErr: true,
		},
		{
			name:    "invalid template syntax",
			tmpl:    "{{ .Task }",
			data:    map[string]string{"Task": "docs"},
			wantErr: true,
		},
		{
			name: "shq function with spaces",
			tmpl: "notify-send {{ .Message | shq }}",
			data: map[string]string{"Message": "hello world"},
			want: "notify-send 'hello world'",
		},
		{
			name: "shq function with single quotes",
			tmpl: "echo {{ .Message | shq }}",
			data: map[string]string{"Message": "it's a test"},
			want: `echo 'it'\''s a test'`,
		},
		{
			name: "shq empty string",
			tmpl: "echo {{ .Message | shq }}",
			data: map[string]string{"Message": ""},
			want: "echo ''",
		},
		{
			name: "upper function",
			tmpl: "[{{ .Level | upper }}]",
			data: map[string]string{"Level": "error"},
			want: "[ERROR]",
		},
		{
			name: "join function",
			tmpl: `{{ join .Args "," }}`,
			data: map[string][]string{"Args": {"a", "b"}},
			want: "a,b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
