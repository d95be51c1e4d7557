// Copyright 2025 venslabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package textbuilder accumulates newline-separated text under a byte budget.
package textbuilder

import (
	"fmt"
	"strings"
)

// ReportOverflowError is returned when required content alone does not fit.
type ReportOverflowError struct {
	MaxSize  int
	Required int
}

func (e *ReportOverflowError) Error() string {
	return fmt.Sprintf("character limit %d reached: %d bytes required", e.MaxSize, e.Required)
}

// TextBuilder keeps sizeUpperBound equal to the byte length of Build() at all
// times, so a line group is either appended whole or not at all.
type TextBuilder struct {
	maxSize        int
	lines          []string
	sizeUpperBound int
}

// New returns a builder limited to maxSize bytes. maxSize <= 0 means no limit.
func New(maxSize int) *TextBuilder {
	return &TextBuilder{maxSize: maxSize}
}

// AddRequired appends structural lines such as the title and the table header.
func (b *TextBuilder) AddRequired(lines ...string) error {
	delta := b.requiredSize(lines)
	if !b.fits(delta) {
		return &ReportOverflowError{MaxSize: b.maxSize, Required: b.sizeUpperBound + delta}
	}
	b.append(lines, delta)
	return nil
}

// TryAdd appends lines only when all of them fit and reports whether they did.
func (b *TextBuilder) TryAdd(lines ...string) bool {
	delta := b.requiredSize(lines)
	if !b.fits(delta) {
		return false
	}
	b.append(lines, delta)
	return true
}

func (b *TextBuilder) append(lines []string, delta int) {
	b.lines = append(b.lines, lines...)
	b.sizeUpperBound += delta
}

func (b *TextBuilder) fits(delta int) bool {
	return b.maxSize <= 0 || b.sizeUpperBound+delta <= b.maxSize
}

// requiredSize counts the bytes of lines, the newlines between them and the
// newline separating them from existing content.
func (b *TextBuilder) requiredSize(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	size := len(lines) - 1
	for _, l := range lines {
		size += len(l)
	}
	if len(b.lines) > 0 {
		size++
	}
	return size
}

func (b *TextBuilder) Size() int {
	return b.sizeUpperBound
}

func (b *TextBuilder) MaxSize() int {
	return b.maxSize
}

func (b *TextBuilder) Build() string {
	return strings.Join(b.lines, "\n")
}
