package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold-cli/internal/core/ports/driven"
)

func TestPromptStore_LoadDefault(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerStrict)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Answer only using the provided context")
}

func TestPromptStore_CreatesDefaultFilesOnFirstLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// No I/O before the first Load
	_, statErr := os.Stat(filepath.Join(dir, driven.PromptAnswerStrict+".txt"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = store.Load(driven.PromptAnswerStrict)
	require.NoError(t, err)

	for _, name := range []string{driven.PromptAnswerStrict, driven.PromptAnswerTerse, driven.PromptAnswerVerbose} {
		_, statErr := os.Stat(filepath.Join(dir, name+".txt"))
		assert.NoError(t, statErr, "default file %s should exist after first load", name)
	}
}

func TestPromptStore_UserEditWins(t *testing.T) {
	dir := t.TempDir()
	custom := "Answer like a pirate, using only the provided context."
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, driven.PromptAnswerStrict+".txt"),
		[]byte(custom+"\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswerStrict)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt, "user file content is trimmed and preferred")
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswerTerse)
	require.NoError(t, err)

	// Edit the file behind the cache, then reload
	edited := "Short answers only."
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, driven.PromptAnswerTerse+".txt"),
		[]byte(edited), 0600))

	cached, err := store.Load(driven.PromptAnswerTerse)
	require.NoError(t, err)
	assert.Equal(t, first, cached, "cache serves the old value until reload")

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerTerse)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)
}
