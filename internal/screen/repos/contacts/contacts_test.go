package contacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ringguard/internal/screen/common/log"
	"github.com/haukened/ringguard/internal/screen/domain"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestParsePlainList(t *testing.T) {
	in := strings.Join([]string{
		"\uFEFF# family",
		"555-123-4567   # Mom",
		"",
		"(555) 123-4567 # duplicate of Mom",
		"not-a-number",
		"+1 555 0100",
	}, "\n")

	cs, err := ParsePlainList(strings.NewReader(in), "list.txt", log.NewNoopLogger())
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Mom", cs[0].Name)
	assert.Equal(t, []string{"555-123-4567"}, cs[0].Numbers)
	assert.Equal(t, "list.txt", cs[0].Source)
	assert.Equal(t, "", cs[1].Name)
}

func TestLoadDirectory_AllFormats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "family.yaml", `
contacts:
  - name: Alice
    numbers: ["555-123-4567", "+44 20 7946 0958"]
  - name: Nobody
    numbers: []
`)
	writeFile(t, dir, "work.json", `{"contacts":[{"name":"Bob","number":"555-0100"}]}`)
	writeFile(t, dir, "club.toml", `
[[contacts]]
name = "Carol"
numbers = ["555-0199"]
`)
	writeFile(t, dir, "extra.txt", "555-0142 # Dave\n")
	writeFile(t, dir, "README.md", "ignored")

	cs, err := LoadDirectory(dir, log.NewNoopLogger())
	require.NoError(t, err)

	names := map[string]domain.Contact{}
	for _, c := range cs {
		names[c.Name] = c
	}
	assert.Len(t, cs, 4, "contact without numbers is skipped")
	assert.Contains(t, names, "Alice")
	assert.Contains(t, names, "Bob")
	assert.Contains(t, names, "Carol")
	assert.Contains(t, names, "Dave")
	assert.Equal(t, []string{"555-123-4567", "+44 20 7946 0958"}, names["Alice"].Numbers)
}

func TestLoadDirectory_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"contacts": [`)
	_, err := LoadDirectory(dir, log.NewNoopLogger())
	assert.Error(t, err)
}

func TestLoadDirectory_Missing(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "nope"), log.NewNoopLogger())
	assert.Error(t, err)
}

func TestFileDirectory_LookupAndReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "555-123-4567 # Alice\n")

	d, err := NewFileDirectory(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	known, err := d.IsKnownContact(ctx, "+1 (555) 123-4567")
	require.NoError(t, err)
	assert.True(t, known)
	name, ok := d.Name("5551234567")
	assert.True(t, ok)
	assert.Equal(t, "Alice", name)

	known, err = d.IsKnownContact(ctx, "555-0100")
	require.NoError(t, err)
	assert.False(t, known)

	writeFile(t, dir, "b.txt", "555-0100\n")
	require.NoError(t, d.Reload())
	known, err = d.IsKnownContact(ctx, "555-0100")
	require.NoError(t, err)
	assert.True(t, known)
	assert.Equal(t, 2, d.Len())

	// a failed reload keeps the previous index
	writeFile(t, dir, "c.json", "{")
	assert.Error(t, d.Reload())
	assert.Equal(t, 2, d.Len())
}

func TestFileDirectory_CancelledContext(t *testing.T) {
	d := NewStaticDirectory([]domain.Contact{{Name: "A", Numbers: []string{"555-0100"}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.IsKnownContact(ctx, "555-0100")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileDirectory_EmptyNumber(t *testing.T) {
	d := NewStaticDirectory(nil)
	known, err := d.IsKnownContact(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, known)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("contacts permission denied")
	known, err := Unavailable{Err: cause}.IsKnownContact(context.Background(), "555-0100")
	assert.False(t, known)
	assert.ErrorIs(t, err, cause)
}

func TestUnavailable_ZeroValueFails(t *testing.T) {
	known, err := Unavailable{}.IsKnownContact(context.Background(), "555-0100")
	assert.False(t, known)
	assert.ErrorIs(t, err, ErrDirectoryUnavailable)
}
