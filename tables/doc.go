// Package tables detects and extracts tables from PDF pages.
//
// Detection runs an ordered list of strategies per page: the bordered
// detector first, which locates table regions from ruling-line geometry,
// then the borderless detector, which groups text fragments by alignment
// into rows and columns. The caller advances to the next strategy only when
// the previous one found nothing. An optional OCR fallback handles scanned
// pages by extracting recognized text as a degenerate single-cell grid.
//
// Each detected table is classified by keyword rules, annotated with its
// surrounding context lines and inferred unit, and scored with an extraction
// confidence in [0, 1].
package tables
