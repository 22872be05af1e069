package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrCanceled is returned when the user dismisses the directory picker.
var ErrCanceled = errors.New("directory selection canceled")

// PickDirectory opens the native directory picker. Where no picker is
// available it falls back to asking on the terminal.
func PickDirectory(title string) (string, error) {
	dir, err := zenity.SelectFile(zenity.Directory(), zenity.Title(title))
	switch {
	case err == nil:
		return dir, nil
	case errors.Is(err, zenity.ErrCanceled):
		return "", ErrCanceled
	default:
		log.Debug().Err(err).Msg("Directory picker unavailable, prompting on terminal")
		return PromptForDirectory(os.Stdin, os.Stderr), nil
	}
}

// PromptForDirectory asks for a directory path on out and reads it from in.
// Returns the current directory if the user enters nothing.
func PromptForDirectory(in io.Reader, out io.Writer) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	fmt.Fprintf(out, "Output directory [%s]: ", cwd)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return cwd
	}
	if input = strings.TrimSpace(input); input == "" {
		return cwd
	}
	return input
}
