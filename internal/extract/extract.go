// Package extract turns a fetched source document into a table.
//
// The only implementation shipped today is Placeholder, which ignores the
// document and returns a fixed bill of quantities. Real PDF extraction
// plugs in by implementing Extractor; the request/response contract of the
// processor does not change.
package extract

import (
	"context"

	"github.com/andresuchdata/draftq-processor/internal/domain"
)

// Extractor produces a table from a document on local disk.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) (*domain.Table, error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, doc domain.Document) (*domain.Table, error)

func (f Func) Extract(ctx context.Context, doc domain.Document) (*domain.Table, error) {
	return f(ctx, doc)
}

// BOQColumns is the header of every bill-of-quantities table.
var BOQColumns = []string{"Item", "Quantity", "Unit"}

// Placeholder is a stub extractor. It does not read the document.
type Placeholder struct{}

func (Placeholder) Extract(ctx context.Context, _ domain.Document) (*domain.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.Table{
		Columns: append([]string(nil), BOQColumns...),
		Rows: [][]any{
			{"Wall Finish", 120, "m2"},
			{"Floor Finish", 200, "m2"},
			{"Ceiling Paint", 150, "m2"},
		},
	}, nil
}

var _ Extractor = Placeholder{}
