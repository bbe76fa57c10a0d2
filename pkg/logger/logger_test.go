package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONConNivelYServicio(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "warn", Service: "costing", Output: &buf})

	l.Info().Msg("descartado")
	l.Warn().Str("invoice_id", "inv-1").Msg("pago no vinculado")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "costing", entry["service"])
	assert.Equal(t, "inv-1", entry["invoice_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("desconocido"))
}

func TestNop_NoEscribe(t *testing.T) {
	l := Nop()
	l.Error().Msg("nada")
	assert.Equal(t, zerolog.Disabled, l.Zerolog().GetLevel())
}
