package asciidoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name       string
		contents   string
		title      string
		attributes map[string]string
		unset      []string
	}{
		{
			name:       "title and attributes",
			contents:   "= Page Title\n:page-aliases: old.adoc, older.adoc\n:navtitle: Short\n\nBody\n:ignored: yes\n",
			title:      "Page Title",
			attributes: map[string]string{"page-aliases": "old.adoc, older.adoc", "navtitle": "Short"},
		},
		{
			name:       "attributes without title",
			contents:   ":page-aliases: old.adoc\n\n= Not A Header Title\n",
			attributes: map[string]string{"page-aliases": "old.adoc"},
		},
		{
			name:       "comments and leading blank lines",
			contents:   "\n// a comment\n= Title\n// another\n:toc:\n",
			title:      "Title",
			attributes: map[string]string{"toc": ""},
		},
		{
			name:       "unset forms",
			contents:   "= Title\n:sectanchors:\n:sectanchors!:\n:!icons:\n",
			title:      "Title",
			attributes: map[string]string{},
			unset:      []string{"sectanchors", "icons"},
		},
		{
			name:       "body ends header",
			contents:   "Just a paragraph.\n:not-an-attribute: value\n",
			attributes: map[string]string{},
		},
		{
			name:       "windows line endings",
			contents:   "= Title\r\n:Page-Aliases: old.adoc\r\n",
			title:      "Title",
			attributes: map[string]string{"page-aliases": "old.adoc"},
		},
		{
			name:       "empty",
			attributes: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := ReadHeader([]byte(tt.contents))
			assert.Equal(t, tt.title, header.Title)
			assert.Equal(t, tt.attributes, header.Attributes)
			assert.Equal(t, tt.unset, header.Unset)
		})
	}
}
