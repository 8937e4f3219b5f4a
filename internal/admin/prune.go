// Package admin provides destructive maintenance operations for operators.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/biomed/internal/core"
)

// OpTimeout is the maximum duration of an admin operation.
const OpTimeout = 30 * time.Second

// ConfirmWord must be typed to approve a destructive operation.
const ConfirmWord = "DELETE"

// ErrAborted is returned when the operator does not confirm.
var ErrAborted = errors.New("operation aborted")

// Pruner hard-deletes the most recently created cards, for undoing a bad
// import. Deleting a card removes its documents, schedule, interventions
// and history.
type Pruner struct {
	Service *core.Service
	In      io.Reader
	Out     io.Writer
}

// Prune lists the n newest cards, asks for confirmation unless assumeYes,
// and deletes exactly the listed cards. It returns the deleted IDs.
func (p *Pruner) Prune(ctx context.Context, n int, assumeYes bool) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", n)
	}

	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	cards, err := p.Service.NewestCards(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list newest cards: %w", err)
	}
	if len(cards) == 0 {
		fmt.Fprintln(p.Out, "No cards to delete.")
		return nil, nil
	}

	ids := make([]int64, len(cards))
	fmt.Fprintf(p.Out, "The following %d card(s) will be permanently deleted:\n", len(cards))
	for i, c := range cards {
		ids[i] = c.ID
		fmt.Fprintf(p.Out, "  #%d  %s  %s %s  (serie %s)\n", c.ID, c.Name, c.Brand, c.Model, c.Series)
	}

	if !assumeYes {
		ok, err := Confirm(p.In, p.Out, fmt.Sprintf("Type %s to confirm: ", ConfirmWord), ConfirmWord)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	deleted, err := p.Service.DeleteCards(ctx, ids)
	fmt.Fprintf(p.Out, "Deleted %d card(s).\n", len(deleted))
	return deleted, err
}

// Confirm prints prompt and reports whether the next input line is
// exactly word. EOF counts as a refusal.
func Confirm(in io.Reader, out io.Writer, prompt, word string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == word, nil
}
