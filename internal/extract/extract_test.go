package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCategoryOf(t *testing.T) {
	tests := map[string]Category{
		"notes.txt":   CategoryText,
		"README.MD":   CategoryText,
		"main.go":     CategoryCode,
		"app.tsx":     CategoryCode,
		"index.html":  CategoryMarkup,
		"config.yaml": CategoryMarkup,
		"paper.pdf":   CategoryDocument,
		"Makefile":    CategoryText,
		"archive.zip": CategoryText,
	}
	for path, want := range tests {
		assert.Equal(t, want, CategoryOf(path), path)
	}
}

func TestRegistry_For_ResolvesByCategory(t *testing.T) {
	r := NewRegistry(nil)

	assert.IsType(t, PDFStrategy{}, r.For("a.pdf"))
	assert.IsType(t, TextStrategy{}, r.For("a.go"))
	assert.IsType(t, TextStrategy{}, r.For("a.unknown"))
}

type stubStrategy struct{ text string }

func (s stubStrategy) Extract(string) (string, error) { return s.text, nil }

func TestRegistry_Register_OverridesCategory(t *testing.T) {
	// Given: a registry with a custom code strategy
	r := NewRegistry([]string{".go"})
	r.Register(CategoryCode, stubStrategy{text: "stubbed"})

	// When: extracting a code file
	text, err := r.Extract("whatever.go")

	// Then: the custom strategy is used
	require.NoError(t, err)
	assert.Equal(t, "stubbed", text)
}

func TestRegistry_Extract_RejectsUnsupportedExtension(t *testing.T) {
	r := NewRegistry([]string{".txt"})
	path := writeFile(t, t.TempDir(), "image.png", []byte("not really"))

	_, err := r.Extract(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, nferrors.ErrUnsupportedExtension)
}

func TestRegistry_Extract_AllowListIsCaseInsensitive(t *testing.T) {
	r := NewRegistry([]string{".TXT"})
	path := writeFile(t, t.TempDir(), "Notes.Txt", []byte("hello"))

	text, err := r.Extract(path)

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestTextStrategy_UTF8(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.md", []byte("# Títle\nbody"))

	text, err := TextStrategy{}.Extract(path)

	require.NoError(t, err)
	assert.Equal(t, "# Títle\nbody", text)
}

func TestTextStrategy_RejectsBinary(t *testing.T) {
	// Given: a NUL byte inside the first KiB
	path := writeFile(t, t.TempDir(), "blob.txt", []byte("abc\x00def"))

	_, err := TextStrategy{}.Extract(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, nferrors.ErrFileRead)
}

func TestTextStrategy_NulAfterSniffWindowIsText(t *testing.T) {
	data := make([]byte, 2048)
	for i := range data {
		data[i] = 'x'
	}
	data[1500] = 0
	path := writeFile(t, t.TempDir(), "late.txt", data)

	_, err := TextStrategy{}.Extract(path)

	assert.NoError(t, err)
}

func TestTextStrategy_MissingFile(t *testing.T) {
	_, err := TextStrategy{}.Extract(filepath.Join(t.TempDir(), "nope.txt"))

	require.Error(t, err)
	assert.ErrorIs(t, err, nferrors.ErrFileNotFound)
}

func TestDecode_Fallbacks(t *testing.T) {
	// cp1252: 0x93/0x94 are curly quotes
	text, err := Decode([]byte{0x93, 'h', 'i', 0x94})
	require.NoError(t, err)
	assert.Equal(t, "“hi”", text)

	// latin-1: 0x81 is undefined in cp1252
	text, err = Decode([]byte{'a', 0x81, 0xe9})
	require.NoError(t, err)
	assert.Equal(t, "a\u0081é", text)
}

func TestPDFStrategy_InvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", []byte("this is not a pdf"))

	_, err := PDFStrategy{}.Extract(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, nferrors.ErrFileRead)
}
