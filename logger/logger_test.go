package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	l := New("release")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	d := New("debug")
	assert.NotEqual(t, zerolog.Disabled, d.GetLevel())
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(buf)
	l.Info().Str("movement", "42").Msg("creado")

	assert.Contains(t, buf.String(), "creado")
	assert.Contains(t, buf.String(), `"movement":"42"`)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	l := FromContext(ctx)
	l.Info().Msg("desde contexto")
	assert.Contains(t, buf.String(), "desde contexto")

	// 没有日志实例时回退到全局实例
	fallback := FromContext(context.Background())
	assert.Equal(t, Log.GetLevel(), fallback.GetLevel())
}
