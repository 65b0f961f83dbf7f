package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const (
	reset      = "\x1b[0m"
	boldYellow = "\x1b[1;33m"
)

// Banner prints the startup banner
func Banner(w io.Writer, color bool) {
	lines := []string{
		"============================================",
		"            Kaisar ZeroNode Bot",
		"============================================",
	}

	fmt.Fprintln(w)
	for _, line := range lines {
		if color {
			fmt.Fprintln(w, boldYellow+line+reset)
		} else {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
}

// AskYesNo prints question and reads one answer line. Only "y" and "yes" count as yes.
func AskYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s (y/n): ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
