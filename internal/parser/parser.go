package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ErrUnsupportedFormat is returned when a file extension has no registered
// extractor. It is a per-file condition: callers skip the file and report it,
// the rest of the batch proceeds.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser extracts plain text from uploaded document files.
type Parser struct {
	markdown goldmark.Markdown
}

// New creates a document parser.
func New() *Parser {
	return &Parser{
		markdown: goldmark.New(),
	}
}

// Parse extracts the text content of a document. The format is chosen by the
// filename extension: .txt, .md, .pdf and .docx are supported; anything else
// fails with ErrUnsupportedFormat.
func (p *Parser) Parse(filename string, r io.Reader) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return parseText(r)
	case ".md", ".markdown":
		return p.parseMarkdown(r)
	case ".pdf":
		return parsePDF(r)
	case ".docx":
		return parseDocx(r)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func parseText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// parseMarkdown strips markdown formatting by walking the goldmark AST and
// collecting text segments, one line per block element.
func (p *Parser) parseMarkdown(r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	var builder strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			builder.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				builder.WriteByte('\n')
			}
		case *ast.String:
			builder.Write(node.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				builder.Write(line.Value(content))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if builder.Len() > 0 && !strings.HasSuffix(builder.String(), "\n") {
				builder.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	return builder.String(), nil
}

func parsePDF(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	extracted, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return string(extracted), nil
}

// parseDocx reads word/document.xml out of the docx zip container and
// collects the <w:t> runs, one line per <w:p> paragraph.
func parseDocx(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("docx is missing word/document.xml")
	}
	defer func() {
		_ = docXML.Close()
	}()

	var builder strings.Builder
	decoder := xml.NewDecoder(docXML)
	inTextRun := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document.xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(el)
			}
		}
	}

	return builder.String(), nil
}
