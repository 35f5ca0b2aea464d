package scraper

import (
	"context"
	"iter"

	"jobmate/govjobs-service/internal/model"
)

// PDFAdapter is the placeholder for notification PDFs. Extracting postings
// from them is out of scope, so it always yields nothing.
type PDFAdapter struct{}

// NewPDFAdapter returns the PDF placeholder adapter.
func NewPDFAdapter() *PDFAdapter { return &PDFAdapter{} }

func (*PDFAdapter) Type() model.SourceType { return model.SourceTypePDF }

func (*PDFAdapter) Listings(context.Context, model.JobSource) (iter.Seq[model.RawListing], error) {
	return emptySeq[model.RawListing](), nil
}
