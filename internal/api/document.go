// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package api

import "strings"

// DocumentPage is the text of a single page. Text is empty when the
// page could not be read.
type DocumentPage struct {
	Index int
	Text  string
}

type DocumentContent struct {
	Pages []DocumentPage
}

// Text concatenates the readable pages in document order, terminating
// each one with a newline. Pages without text contribute nothing.
func (dc DocumentContent) Text() string {
	var sb strings.Builder
	for _, page := range dc.Pages {
		if page.Text == "" {
			continue
		}
		sb.WriteString(page.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// ReadablePages returns the number of pages that yielded text.
func (dc DocumentContent) ReadablePages() int {
	n := 0
	for _, page := range dc.Pages {
		if page.Text != "" {
			n += 1
		}
	}
	return n
}
