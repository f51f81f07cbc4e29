// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"golang.org/x/term"
)

// Sentinel errors for option selection.
var (
	ErrNoOptions          = errors.New("no options to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Option is one choice offered to the user, such as a detected drive.
type Option struct {
	Value       string
	Description string
}

func (o Option) String() string {
	if o.Description == "" {
		return o.Value
	}
	return fmt.Sprintf("%s (%s)", o.Value, o.Description)
}

// finderFunc picks an option index, returning fuzzyfinder.ErrAbort when the
// user backs out.
type finderFunc func(title string, options []Option) (int, error)

// Selector handles interactive selection prompts.
// Both prompts share one buffered reader so piped answers are not lost
// between them.
type Selector struct {
	reader *bufio.Reader
	writer io.Writer
	finder finderFunc
}

// NewSelector creates a Selector using stdin and stdout. When both are
// terminals, choices are made with a fuzzy finder instead of a numbered
// list.
func NewSelector() *Selector {
	s := &Selector{
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		s.finder = fuzzyFind
	}
	return s
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

func fuzzyFind(title string, options []Option) (int, error) {
	return fuzzyfinder.Find(
		options,
		func(i int) string { return options[i].Value },
		fuzzyfinder.WithHeader(title),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return options[i].String()
		}),
	)
}

// Select prompts the user to choose one of options.
//
// Returns:
//   - ErrNoOptions if the list is empty
//   - The option if only one exists (auto-selects without prompting)
//   - The selected option based on user input
//   - ErrInvalidSelection if the selection is out of range
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D) or the finder is aborted
func (s *Selector) Select(title string, options []Option) (*Option, error) {
	if len(options) == 0 {
		return nil, ErrNoOptions
	}

	// Auto-select if only one option
	if len(options) == 1 {
		return &options[0], nil
	}

	if s.finder != nil {
		idx, err := s.finder(title, options)
		if err != nil {
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil, ErrSelectionCancelled
			}
			return nil, errors.Wrap(err, "interactive selection failed")
		}
		return &options[idx], nil
	}

	// Display selection prompt
	fmt.Fprintf(s.writer, "%s:\n", title)
	for i, o := range options {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, o)
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	// Read user input
	input, err := s.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "reading selection")
	}

	input = strings.TrimSpace(input)

	// Default to first option if empty
	if input == "" {
		return &options[0], nil
	}

	// Parse selection number
	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	// Validate range (1-indexed)
	if selection < 1 || selection > len(options) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(options))
	}

	return &options[selection-1], nil
}

// Confirm asks a yes/no question. An empty answer returns def.
func (s *Selector) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(s.writer, "%s %s: ", question, hint)

	input, err := s.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		if errors.Is(err, io.EOF) {
			return false, ErrSelectionCancelled
		}
		return false, errors.Wrap(err, "reading answer")
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, errors.Wrapf(ErrInvalidSelection, "%q is not yes or no", strings.TrimSpace(input))
	}
}
