package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// maxConversationBytes keeps a typed conversation well inside the server's
// request body limit once it is JSON encoded.
const maxConversationBytes = 256 << 10

var errConversationTooLong = fmt.Errorf("conversation is longer than %d KiB", maxConversationBytes>>10)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// readLine returns the next line without its line ending. A last line that
// ends at EOF instead of a newline is still returned.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// GetSimpleText asks for one line of input, surrounding spaces trimmed.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}
	line, err := readLine(reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo. The caller
// should wipe the returned slice.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	defer fmt.Fprintln(w)
	return readPassword(int(os.Stdin.Fd()))
}

// GetMultiline reads a conversation up to the first empty line or EOF.
// An oversized conversation is still read to its end, so none of it is
// left behind to be taken as commands, and errConversationTooLong is
// returned.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n(press Enter on an empty line to finish)\n", prompt); err != nil {
		return "", err
	}

	var (
		text    strings.Builder
		tooLong bool
	)
	for {
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) || (err == nil && line == "") {
			break
		}
		if err != nil {
			return "", err
		}
		if tooLong || text.Len()+len(line)+1 > maxConversationBytes {
			tooLong = true
			continue
		}
		if text.Len() > 0 {
			text.WriteByte('\n')
		}
		text.WriteString(line)
	}
	if tooLong {
		return "", errConversationTooLong
	}
	return strings.TrimSpace(text.String()), nil
}
