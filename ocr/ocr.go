//go:build ocr

// Package ocr recognizes text in scanned disclosure pages.
//
// This package wraps the Tesseract engine via gosseract and requires
// Tesseract to be installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// Without the "ocr" build tag a stub is compiled instead and table
// extraction runs on geometry detection alone.
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps Tesseract for recognizing scanned table pages. It satisfies
// the OCR client interface the table extractor consumes.
type Client struct {
	client *gosseract.Client
}

// New creates an OCR client configured for English financial disclosures.
// The client holds native resources and must be closed when done.
func New() (*Client, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr language: %w", err)
	}
	// Scanned financial tables read best as one uniform text block.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	return &Client{client: client}, nil
}

// Close releases the Tesseract resources. Safe on a client whose engine is
// already gone.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// RecognizeImage performs OCR on encoded image data (PNG, TIFF, JPEG).
// Returns the recognized text with surrounding whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// SetLanguage overrides the recognition language. Multiple languages join
// with "+" (e.g. "eng+hin").
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// SetPageSegMode overrides how Tesseract segments the page layout.
func (c *Client) SetPageSegMode(mode gosseract.PageSegMode) error {
	return c.client.SetPageSegMode(mode)
}
