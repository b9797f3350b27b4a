package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type reply struct {
		Reply    string `json:"reply"`
		IsFinish bool   `json:"is_finish"`
	}

	tests := []struct {
		name    string
		in      string
		want    reply
		wantErr bool
	}{
		{name: "plain", in: `{"reply":"hi","is_finish":false}`, want: reply{Reply: "hi"}},
		{name: "fenced", in: "```json\n{\"reply\":\"done\",\"is_finish\":true}\n```", want: reply{Reply: "done", IsFinish: true}},
		{name: "bare fence", in: "```\n{\"reply\":\"x\"}\n```", want: reply{Reply: "x"}},
		{name: "empty", in: "   ", wantErr: true},
		{name: "prose", in: "Sure! Here is your question.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got reply
			err := ParseJSON(tt.in, &got)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
