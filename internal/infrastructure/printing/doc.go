// Package printing renders invoices.
//
// The invoice layout is an html/template embedded from templates/. The
// rendered HTML is either returned as is or converted to PDF by a headless
// Chrome driven through chromedp. Rendered documents can be archived with
// FileSystemStorage or any other printing.InvoiceArchive.
package printing
