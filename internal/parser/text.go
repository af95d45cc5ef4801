package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/sitetree/internal/doctree"
)

// maxTextHeading bounds how long a one-line opening paragraph may be to count as a heading.
const maxTextHeading = 120

// TextParser handles plain text files. A one-line opening paragraph is the heading.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{}

	if len(paragraphs) > 1 {
		first := strings.TrimSpace(paragraphs[0])
		if !strings.Contains(first, "\n") && len(first) <= maxTextHeading {
			heading := &doctree.DocNode{Title: first}
			for _, para := range paragraphs[1:] {
				heading.Children = append(heading.Children, &doctree.DocNode{Text: para})
			}
			tree.Children = []*doctree.DocNode{heading}
			return tree, nil
		}
	}

	for _, para := range paragraphs {
		tree.Children = append(tree.Children, &doctree.DocNode{Text: para})
	}

	return tree, nil
}
