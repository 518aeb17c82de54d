package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/logger"
)

type format int

const (
	formatText format = iota
	formatPDF
	formatDOCX
)

// Extractor pulls raw text out of a resume file. PDFs go through MuPDF
// first, then the pure-Go reader, then OCR when tesseract is installed.
type Extractor struct {
	log *zap.Logger
	ocr func(path string) (string, error)
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log: logger.OrNop(log), ocr: ocrPDF}
}

// ExtractText returns the raw, uncleaned text of the file at path.
func (e *Extractor) ExtractText(path string) (string, error) {
	f, err := sniff(path)
	if err != nil {
		return "", err
	}

	switch f {
	case formatPDF:
		return e.extractPDF(path)
	case formatDOCX:
		return extractDOCX(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		return string(data), nil
	}
}

func sniff(path string) (format, error) {
	file, err := os.Open(path)
	if err != nil {
		return formatText, fmt.Errorf("open resume: %w", err)
	}
	defer file.Close()

	head := make([]byte, 5)
	n, _ := io.ReadFull(file, head)
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, []byte("%PDF-")):
		return formatPDF, nil
	case bytes.HasPrefix(head, []byte("PK\x03\x04")):
		return formatDOCX, nil
	}
	return formatText, nil
}

func (e *Extractor) extractPDF(path string) (string, error) {
	text, err := extractPDFFitz(path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	e.log.Debug("mupdf extraction empty, trying fallback reader", zap.Error(err))

	text, err = extractPDFPlain(path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	e.log.Debug("plain pdf reader empty, trying OCR", zap.Error(err))

	if e.ocr != nil {
		text, ocrErr := e.ocr(path)
		if ocrErr == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		e.log.Debug("OCR produced no text", zap.Error(ocrErr))
	}
	return "", fmt.Errorf("no text extracted from PDF: %w", errs.ErrParseFailure)
}

func extractPDFFitz(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	parts := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func extractPDFPlain(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w: %w", errs.ErrParseFailure, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		return docxText(rc)
	}
	return "", fmt.Errorf("docx has no word/document.xml: %w", errs.ErrParseFailure)
}

// docxText collects <w:t> runs, breaking lines at paragraphs and tabs.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w: %w", errs.ErrParseFailure, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
