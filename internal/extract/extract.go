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

package extract

import (
	"context"
	"errors"
)

var (
	ErrUnreadableDocument = errors.New("document could not be opened")
	ErrNoText             = errors.New("document contains no readable text")
	ErrParserFailed       = errors.New("document parser failed")
	ErrInvalidType        = errors.New("no extractor found for given type")
)

const (
	TypePDF = iota
	TypeOCR
)

var typeMap = map[string]Type{
	"pdf": TypePDF,
	"ocr": TypeOCR,
}

type Type int

func ParseType(s string) (Type, error) {
	t, ok := typeMap[s]
	if !ok {
		return 0, ErrInvalidType
	}
	return t, nil
}

// Result is the outcome of an extraction. Failures are carried in Err
// rather than returned, since an unreadable document is an expected input.
type Result struct {
	Text  string
	Pages int
	Err   error
}

// Ok reports whether the document yielded any text.
func (r Result) Ok() bool {
	return r.Err == nil && r.Text != ""
}

// Empty reports whether the document itself had nothing to extract. Parser,
// transport and context failures are not empty documents and must reach
// the caller.
func (r Result) Empty() bool {
	if r.Ok() {
		return false
	}
	return r.Err == nil || errors.Is(r.Err, ErrUnreadableDocument) || errors.Is(r.Err, ErrNoText)
}

type Extractor interface {
	Extract(ctx context.Context, path string) Result
}
