// Package diff computes character-level differences between two documents
// and reassembles the resulting fragment stream into line-oriented HTML
// records suitable for the diff page renderer.
package diff

import (
	"errors"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Kind classifies a fragment produced by the diff engine.
type Kind int

const (
	Equal Kind = iota
	Insert
	Delete
)

func (k Kind) String() string {
	switch k {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// class returns the CSS class carried by spans of this kind. Equal text is
// rendered bare, without a wrapping element.
func (k Kind) class() string {
	switch k {
	case Insert:
		return "added"
	case Delete:
		return "deleted"
	default:
		return ""
	}
}

// Operation is one fragment of the diff stream. Text is opaque: it may start
// or end mid-line and may contain any number of embedded newlines.
type Operation struct {
	Kind Kind
	Text string
}

// ErrIdentical reports that both documents are byte-identical and there is
// nothing to diff.
var ErrIdentical = errors.New("documents are identical")

// Engine computes ordered diff operations between two documents using
// diff-match-patch with a semantic cleanup pass for readability.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func NewEngine() *Engine {
	return &Engine{dmp: diffmatchpatch.New()}
}

// Compute diffs oldText against newText and returns the ordered operation
// stream. It returns ErrIdentical without invoking the differ when the
// documents are equal.
func (e *Engine) Compute(oldText, newText string) ([]Operation, error) {
	if oldText == newText {
		return nil, ErrIdentical
	}

	diffs := e.dmp.DiffMain(oldText, newText, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)

	ops := make([]Operation, 0, len(diffs))
	for _, d := range diffs {
		kind, err := kindOf(d.Type)
		if err != nil {
			return nil, err
		}
		ops = append(ops, Operation{Kind: kind, Text: d.Text})
	}
	return ops, nil
}

// kindOf maps a diff-match-patch operation onto the closed Kind enum. Any
// other value is a contract violation by the diff engine and is rejected at
// the boundary instead of being silently treated as unchanged text.
func kindOf(op diffmatchpatch.Operation) (Kind, error) {
	switch op {
	case diffmatchpatch.DiffEqual:
		return Equal, nil
	case diffmatchpatch.DiffInsert:
		return Insert, nil
	case diffmatchpatch.DiffDelete:
		return Delete, nil
	default:
		return Equal, fmt.Errorf("unknown diff operation: %d", op)
	}
}
