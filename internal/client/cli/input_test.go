package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("unexpected prompt %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF error on empty input")
	}
}

func TestGetMultiline_DoubleEnter(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("a\r\nb\n\nignored\n"), "Enter text", &out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a\nb"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	if err != nil || string(pw) != "s3cret" {
		t.Fatalf("got %q, err=%v", pw, err)
	}

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	if _, err := GetPassword(&out); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetMultiline_EOFEndsConversation(t *testing.T) {
	var out bytes.Buffer
	got, err := GetMultiline(rdr("  me: hi\nyou: hello"), "Enter text", &out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "me: hi\nyou: hello"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGetMultiline_TooLongIsDrained(t *testing.T) {
	long := strings.Repeat("x", maxConversationBytes/2)
	input := long + "\n" + long + "\n" + "tail\n\nlist\n"
	reader := rdr(input)

	var out bytes.Buffer
	_, err := GetMultiline(reader, "Enter text", &out)
	if !errors.Is(err, errConversationTooLong) {
		t.Fatalf("expected errConversationTooLong, got %v", err)
	}

	next, err := GetSimpleText(reader, "Command", &out)
	if err != nil || next != "list" {
		t.Fatalf("reader not positioned after the conversation: %q, err=%v", next, err)
	}
}
