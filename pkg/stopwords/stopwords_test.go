package stopwords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pemistahl/lingua-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		selector string
		want     lingua.Language
	}{
		{"english", lingua.English},
		{"English", lingua.English},
		{"en", lingua.English},
		{" EN ", lingua.English},
		{"portuguese", lingua.Portuguese},
		{"pt", lingua.Portuguese},
		{"german", lingua.German},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got, err := Resolve(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Resolve("klingon")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestLoad_EmptySelectorFiltersNothing(t *testing.T) {
	set, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains("the"))
}

func TestLoad_BuiltinEnglish(t *testing.T) {
	set, err := Load("", "en")
	require.NoError(t, err)
	assert.True(t, set.Contains("the"))
	assert.True(t, set.Contains("The"))
	assert.True(t, set.Contains("wouldn't"))
	assert.False(t, set.Contains("climate"))
}

func TestLoad_NoBuiltinForLanguage(t *testing.T) {
	_, err := Load("", "german")
	assert.ErrorIs(t, err, ErrNoList)
}

func TestLoad_CorpusDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "portuguese"), []byte("de\nA\n\n# comment\nque \n"), 0644))

	set, err := Load(dir, "pt")
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("a"))
	assert.True(t, set.Contains("que"))
	assert.False(t, set.Contains("# comment"))

	_, err = Load(dir, "english")
	assert.ErrorIs(t, err, ErrNoList)

	_, err = Load(dir, "nowhere")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestNew(t *testing.T) {
	set := New("Foo", " bar ", "")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("FOO"))
	assert.True(t, set.Contains("bar"))
}
