package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestRenderer(mode OutputMode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"auto", ModeAuto, false},
		{"TEXT", ModeText, false},
		{"md", ModeMarkdown, false},
		{"markdown", ModeMarkdown, false},
		{"json", ModeJSON, false},
		{"yml", ModeYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown output format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty is auto", "", false, ModeMarkdown},
		{"explicit json", ModeJSON, true, ModeJSON},
		{"explicit text piped", ModeText, false, ModeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown, false)

	r.Header(1, "Molar Mass")
	r.KeyValue("Formula", "NaCl")
	r.StatusLine("uvcalc.yaml", "success", "")
	r.Success("done")
	r.Table([]string{"Element", "Count"}, [][]string{{"Na", "1"}, {"Cl", "1"}})

	got := out.String()
	assert.Contains(t, got, "# Molar Mass\n")
	assert.Contains(t, got, "- **Formula:** NaCl")
	assert.Contains(t, got, "- uvcalc.yaml (success)")
	assert.Contains(t, got, "**done**")
	assert.Contains(t, got, "| Element | Count |")
	assert.Contains(t, got, "| Na | 1 |")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_Text(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, true)

	r.Header(2, "Series")
	r.KeyValue("Flask volume", "10 mL")
	r.Table([]string{"Target", "Stock"}, [][]string{{"2", "0.2000"}})
	r.Warning("careful")
	r.Error("broken")

	got := out.String()
	assert.Contains(t, got, "Series")
	assert.Contains(t, got, "Flask volume:")
	assert.Contains(t, got, "┌")
	assert.Contains(t, got, "0.2000")
	assert.Contains(t, errOut.String(), "Warning: careful")
	assert.Contains(t, errOut.String(), "Error: broken")
}

func TestRenderer_Data(t *testing.T) {
	v := map[string]any{"formula": "H2O", "molar_mass": 18.016}

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		written, err := r.Data(v)
		require.NoError(t, err)
		assert.True(t, written)

		var back map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &back))
		assert.Equal(t, "H2O", back["formula"])
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeYAML, false)
		written, err := r.Data(v)
		require.NoError(t, err)
		assert.True(t, written)

		var back map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &back))
		assert.InDelta(t, 18.016, back["molar_mass"], 1e-12)
	})

	t.Run("text writes nothing", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		written, err := r.Data(v)
		require.NoError(t, err)
		assert.False(t, written)
		assert.Empty(t, out.String())
	})
}

func TestRenderer_Float(t *testing.T) {
	r, _, _ := newTestRenderer(ModeText, false)
	assert.Equal(t, "58.4400", r.Float(58.44))

	r.SetPrecision(2)
	assert.Equal(t, "58.44", r.Float(58.44))
	assert.Equal(t, 2, r.Precision())

	r.SetPrecision(-1)
	assert.Equal(t, 2, r.Precision())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Sample", FormatHeader(2, "Sample"))
	assert.Equal(t, "# Sample", FormatHeader(0, "Sample"))
	assert.Equal(t, "- **RSD:** 1.2 %", FormatKeyValue("RSD", "1.2 %"))
	assert.Equal(t, "Dilution Factor", Label("dilution_factor"))
	assert.Equal(t, "Flask Volume", Label("flask-volume"))
	assert.True(t, strings.HasPrefix(strings.Join(Modes(), ","), "auto,"))
	assert.True(t, ModeYAML.IsStructured())
	assert.False(t, ModeMarkdown.IsStructured())
}
