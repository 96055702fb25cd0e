package generators

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoSummarizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		conversation string
		prompt       string
		want         string
	}{
		{"no prompt", "Hello world, today was great", "", "Hello world, today was great"},
		{"with prompt", "we walked", "cheerful", "[cheerful] we walked"},
		{"long", strings.Repeat("a", 150), "", strings.Repeat("a", SummaryLength)},
		{"long multibyte", strings.Repeat("ж", 150), "", strings.Repeat("ж", SummaryLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EchoSummarizer{}.Summarize(context.Background(), tt.conversation, tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), SummaryLength)
		})
	}
}

func TestEchoSummarizer_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := EchoSummarizer{}.Summarize(ctx, "x", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileVideoSynthesizer(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "videos")

	s := NewFileVideoSynthesizer(dir)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	ref, err := s.Synthesize(context.Background(), "summary")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`/1700000000123-[0-9a-f]{8}\.mp4$`), ref)

	fi, err := os.Stat(filepath.FromSlash(ref))
	require.NoError(t, err)
	assert.Zero(t, fi.Size())

	other, err := s.Synthesize(context.Background(), "summary")
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestFileVideoSynthesizer_UnwritableDir(t *testing.T) {
	t.Parallel()
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewFileVideoSynthesizer(filepath.Join(blocker, "videos")).Synthesize(context.Background(), "s")
	require.Error(t, err)
}

func TestRefLinker(t *testing.T) {
	t.Parallel()
	got, err := RefLinker{}.Link(context.Background(), "videos/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "videos/a.mp4", got)
}
