package sl

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "plain error", err: errors.New("boom"), want: "boom"},
		{name: "wrapped error", err: errors.New("op: inner"), want: "op: inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr := Err(tt.err)
			assert.Equal(t, "error", attr.Key)
			assert.Equal(t, slog.KindString, attr.Value.Kind())
			assert.Equal(t, tt.want, attr.Value.String())
		})
	}
}
