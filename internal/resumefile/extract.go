// Package resumefile validates uploaded resume documents and pulls out their
// plain text for previews.
package resumefile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	ErrUnsupported = errors.New("must be a PDF or DOCX file")
	ErrUnreadable  = errors.New("could not be read")
)

// Extractor implements resumes.TextExtractor.
type Extractor struct{}

func New() Extractor { return Extractor{} }

// Extract identifies the document by extension and magic bytes and returns
// its content type and plain text.
func (Extractor) Extract(filename string, data []byte) (string, string, error) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return "", "", ErrUnsupported
		}
		text, err := pdfText(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return ContentTypePDF, text, nil
	case ".docx":
		if !bytes.HasPrefix(data, []byte("PK\x03\x04")) {
			return "", "", ErrUnsupported
		}
		text, err := docxText(data)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return ContentTypeDOCX, text, nil
	default:
		return "", "", ErrUnsupported
	}
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer func() { _ = doc.Close() }()
	return documentText(doc.Editable().GetContent())
}

// documentText collects the text runs (w:t) of a WordprocessingML body,
// breaking lines at paragraph ends.
func documentText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
