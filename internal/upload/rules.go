// Package upload validates and submits the "add image" form.
package upload

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/docker/go-units"
)

// Field names a form field. The values match the HTML input names.
type Field string

const (
	FieldFile        Field = "image"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

const (
	// MaxFileMiB is the largest accepted file, compared after rounding the
	// size in MiB to two decimals.
	MaxFileMiB     = 10.0
	TitleMinLen    = 2
	TitleMaxLen    = 20
	DescriptionMax = 65
)

var acceptedType = regexp.MustCompile(`(?i)^image/(jpeg|png|gif)$`)

// File describes a selected file.
type File struct {
	Name        string
	Size        int64
	ContentType string
}

// Draft is the unsaved form input.
type Draft struct {
	Title       string
	Description string
	File        *File
}

// Errors maps each failing field to its message.
type Errors map[Field]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[Field(f)])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks every field of d and returns nil when all rules pass.
func Validate(d Draft) Errors {
	errs := Errors{}
	if msg := fileMessage(d.File); msg != "" {
		errs[FieldFile] = msg
	}
	for f, msg := range ValidateText(d.Title, d.Description) {
		errs[f] = msg
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateFile checks only the file field.
func ValidateFile(f *File) Errors {
	if msg := fileMessage(f); msg != "" {
		return Errors{FieldFile: msg}
	}
	return nil
}

// ValidateText checks the title and description fields.
func ValidateText(title, description string) Errors {
	errs := Errors{}
	if msg := titleMessage(title); msg != "" {
		errs[FieldTitle] = msg
	}
	if msg := descriptionMessage(description); msg != "" {
		errs[FieldDescription] = msg
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SizeMiB converts bytes to MiB rounded to two decimals.
func SizeMiB(size int64) float64 {
	return math.Round(float64(size)/units.MiB*100) / 100
}

func fileMessage(f *File) string {
	if f == nil {
		return "File is required"
	}
	if SizeMiB(f.Size) > MaxFileMiB {
		return "File must be smaller than 10MB"
	}
	if !acceptedType.MatchString(f.ContentType) {
		return "Only PNG, JPEG and GIF files are accepted"
	}
	return ""
}

func titleMessage(title string) string {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return "Title is required"
	case n < TitleMinLen:
		return fmt.Sprintf("Minimum of %d characters", TitleMinLen)
	case n > TitleMaxLen:
		return fmt.Sprintf("Maximum of %d characters", TitleMaxLen)
	}
	return ""
}

func descriptionMessage(description string) string {
	n := utf8.RuneCountInString(description)
	switch {
	case n == 0:
		return "Description is required"
	case n > DescriptionMax:
		return fmt.Sprintf("Maximum of %d characters", DescriptionMax)
	}
	return ""
}
