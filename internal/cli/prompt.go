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

// Replaced in tests so prompts never touch the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptLine prints label and reads one line from reader. An empty answer
// yields def.
func promptLine(reader *bufio.Reader, w io.Writer, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(w, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(w, "%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) && def != "" {
			return def, nil
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// promptConfirm asks a yes/no question; anything but y or yes is no.
func promptConfirm(reader *bufio.Reader, w io.Writer, question string) (bool, error) {
	answer, err := promptLine(reader, w, question+" [y/N]", "")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// promptSecret reads a secret without echo when stdin is a terminal and
// as a plain line otherwise.
func promptSecret(reader *bufio.Reader, w io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return promptLine(reader, w, label, "")
	}

	fmt.Fprintf(w, "%s: ", label)
	secret, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(secret)), nil
}
