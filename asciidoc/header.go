package asciidoc

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

var (
	// Document title: = Title
	headerTitle = regexp.MustCompile(`^=\s+(\S.*)$`)

	// Attribute entries: :name: value, :name!: and :!name:
	headerAttribute = regexp.MustCompile(`^:(!?)([^:!]+)(!?):(?:\s+(.*))?$`)
)

// Header is the document title and attribute entries of an AsciiDoc header.
type Header struct {
	Title string
	// Attributes holds attributes set in the header. Unset attributes are
	// recorded in Unset.
	Attributes map[string]string
	Unset      []string
}

// ReadHeader reads the header of an AsciiDoc document. The header ends at the
// first line that is not blank, a comment, the document title or an attribute
// entry; blank lines after the title end it too.
func ReadHeader(contents []byte) Header {
	header := Header{Attributes: make(map[string]string)}
	scanner := bufio.NewScanner(bytes.NewReader(contents))
	started := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			if started {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "//") && !strings.HasPrefix(line, "///") {
			continue
		}
		if !started && header.Title == "" {
			if m := headerTitle.FindStringSubmatch(line); m != nil {
				header.Title = m[1]
				started = true
				continue
			}
		}
		m := headerAttribute.FindStringSubmatch(line)
		if m == nil {
			break
		}
		started = true
		name := strings.ToLower(strings.TrimSpace(m[2]))
		if m[1] == "!" || m[3] == "!" {
			delete(header.Attributes, name)
			header.Unset = append(header.Unset, name)
			continue
		}
		header.Attributes[name] = strings.TrimSpace(m[4])
	}
	return header
}
