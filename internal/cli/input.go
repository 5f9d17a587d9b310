// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/cellcomplete/internal/logger"
	"github.com/bastiangx/cellcomplete/internal/utils"
	"github.com/bastiangx/cellcomplete/pkg/completion"
	"github.com/bastiangx/cellcomplete/pkg/suggest"
)

var wordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

// asyncWait bounds how long a line waits for asynchronous items.
const asyncWait = 2 * time.Second

// InputHandler reads lines and reports, for each line, the suggestions of
// the completer and how the supplier's items match it: the reduced
// matches, whether it has a single match and where its boundaries are.
type InputHandler struct {
	completer       suggest.ICompleter
	supplier        completion.Supplier
	minPrefixLength int
	maxPrefixLength int
	suggestLimit    int
	requestCount    int
	noFilter        bool
	eager           bool
	out             *log.Logger
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(completer suggest.ICompleter, supplier completion.Supplier, minLength, maxLength, limit int, noFilter bool) *InputHandler {
	return &InputHandler{
		completer:       completer,
		supplier:        supplier,
		minPrefixLength: minLength,
		maxPrefixLength: maxLength,
		suggestLimit:    limit,
		noFilter:        noFilter,
		out:             logger.Default(""),
	}
}

// SetEager sets the single-match policy used for analysis.
func (h *InputHandler) SetEager(eager bool) { h.eager = eager }

// SetOutput sends results to w.
func (h *InputHandler) SetOutput(w io.Writer) {
	h.out = log.NewWithOptions(w, log.Options{Level: log.GetLevel()})
}

// Start begins the interface loop. Lines starting with ':' are commands:
// ":eager on|off", ":stats" and ":quit". Start returns nil when in is
// exhausted or on ":quit".
func (h *InputHandler) Start(in io.Reader) error {
	h.out.Print("CellComplete CLI [BETA]")
	h.out.Print("type something and press Enter to see the suggestions (Ctrl+C to exit):")

	scanner := bufio.NewScanner(in)
	for {
		h.out.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := h.handleCommand(line); quit {
				return nil
			}
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) handleCommand(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":eager":
		if len(fields) == 2 && (fields[1] == "on" || fields[1] == "off") {
			h.eager = fields[1] == "on"
			h.out.Printf("eager completion %s", fields[1])
			return false
		}
		h.out.Error("usage: :eager on|off")
	case ":stats":
		for k, v := range h.completer.Stats() {
			h.out.Printf("%-16s %s", k, formatWithCommas(v))
		}
	default:
		h.out.Errorf("Unknown command: %s", fields[0])
	}
	return false
}

// handleInput validates the line, then prints suggestions and the match
// analysis for it.
func (h *InputHandler) handleInput(prefix string) {
	h.requestCount++

	if utils.RuneLen(prefix) < h.minPrefixLength {
		h.out.Errorf("Prefix too short: %s", prefix)
		return
	}
	if utils.RuneLen(prefix) > h.maxPrefixLength {
		h.out.Errorf("Prefix too long: %s", prefix)
		return
	}

	// input filtering by default (unless --no-filter flag is used)
	if !h.noFilter && !utils.IsValidInput(prefix) {
		h.out.Infof("No results found for prefix: '%s'", prefix)
		return
	}

	start := time.Now()
	suggestions := h.completer.Complete(prefix, h.suggestLimit)
	log.Debugf("Took [ %v ] for prefix '%s'", time.Since(start), prefix)

	if len(suggestions) == 0 {
		h.out.Warnf("No suggestions found for prefix: '%s'", prefix)
	} else {
		if suggestions[0].WasCorrected {
			h.out.Printf("Corrected '%s' to '%s'", prefix, suggestions[0].CorrectedPrefix)
		}
		h.out.Printf("Found %d suggestions for prefix '%s':", len(suggestions), prefix)
		for i, s := range suggestions {
			h.out.Printf("%2d. %-40s (freq: %8s)", i+1, wordStyle.Render(s.Word), formatWithCommas(s.Frequency))
		}
	}

	h.analyze(prefix)
}

func (h *InputHandler) analyze(text string) {
	helper := completion.NewHelper(h.items(text))

	matches := helper.Matches(text)
	words := make([]string, len(matches))
	for i, m := range matches {
		words[i] = m.Text()
	}
	h.out.Printf("matches:       %s", strings.Join(words, ", "))
	h.out.Printf("single match:  %t (eager %t)", helper.HasSingleMatch(text, h.eager), h.eager)

	var boundaries []string
	for pos := 1; pos < utils.RuneLen(text); pos++ {
		if helper.IsBoundary(text, pos) {
			boundaries = append(boundaries, fmt.Sprintf("%d", pos))
		}
	}
	if len(boundaries) == 0 {
		boundaries = []string{"none"}
	}
	h.out.Printf("boundaries:    %s", strings.Join(boundaries, ", "))
}

// items collects the supplier's items for text, waiting briefly for the
// asynchronous part.
func (h *InputHandler) items(text string) []completion.Item {
	p := completion.Params{Prefix: text}
	items := h.supplier.Get(p)

	ctx, cancel := context.WithTimeout(context.Background(), asyncWait)
	defer cancel()
	more, err := h.supplier.GetAsync(p).Result(ctx)
	if err != nil {
		log.Debugf("Asynchronous items unavailable: %v", err)
		return items
	}
	return append(items, more...)
}

// formatWithCommas formats an integer with comma separators
func formatWithCommas(n int) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}

	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return b.String()
}
