package printing

import "context"

// InvoiceRenderer renders invoice data into a downloadable document
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, data InvoiceData) (*Document, error)
}

// InvoiceArchive keeps a copy of every rendered invoice. Save returns the
// location the document was written to.
type InvoiceArchive interface {
	Save(ctx context.Context, doc *Document) (string, error)
}
