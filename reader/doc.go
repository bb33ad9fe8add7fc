// Package reader opens PDF disclosure documents and turns each page into the
// geometric form table detection works on.
//
// # Opening Documents
//
// Use [Open] to open a PDF file:
//
//	doc, err := reader.Open("disclosure.pdf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer doc.Close()
//
// Or use [NewDocument] with an existing *os.File.
//
// # Page Content
//
// Pages are accessed by 1-indexed number:
//
//	page, err := doc.Page(1)
//
// Each page carries:
//
//   - Fragments - positioned text runs, assembled from glyph runs
//   - Lines - full text lines in top-to-bottom reading order
//   - Rulings - drawn table borders, recovered from thin filled rectangles
//   - Text - the plain page text
//   - Images - embedded raster images as PNG data, for the OCR fallback
//
// Text is normalized to NFKC form so ligatures and compatibility characters
// compare equal to their plain spellings downstream.
package reader
