package sensitive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWord(t *testing.T) {
	w := NewWord([]string{"Casino", " scam "})

	pass, str := w.Validate("Sourdough trends in Austin")
	assert.Equal(t, true, pass)
	assert.Equal(t, "", str)

	pass, str = w.Validate("Best CASINO nights downtown")
	assert.Equal(t, false, pass)
	assert.Equal(t, "casino", str)
}

func TestEmptyWordListPassesEverything(t *testing.T) {
	w := NewWord(nil)
	pass, _ := w.Validate("anything at all")
	assert.True(t, pass)
}

func TestLoadDict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("gambling\nlottery\n"), 0o644))

	w := NewWord(nil)
	require.NoError(t, w.LoadDict(path))

	pass, str := w.Validate("weekly lottery results")
	assert.False(t, pass)
	assert.Equal(t, "lottery", str)
}

func TestLoad(t *testing.T) {
	w, err := Load(nil, "")
	require.NoError(t, err)
	assert.Nil(t, w)

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("lottery\n"), 0o644))
	w, err = Load([]string{"Casino"}, path)
	require.NoError(t, err)
	require.NotNil(t, w)

	pass, str := w.Validate("casino night")
	assert.False(t, pass)
	assert.Equal(t, "casino", str)
	pass, str = w.Validate("Lottery tickets")
	assert.False(t, pass)
	assert.Equal(t, "lottery", str)

	_, err = Load(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
