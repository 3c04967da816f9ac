package content

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	frontMatterDelim = []byte("---")
	utf8BOM          = []byte("\xef\xbb\xbf")
)

// lessonFrontMatter pointer fields tell absent keys from zero values
type lessonFrontMatter struct {
	Title       *string  `yaml:"title"`
	Description *string  `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Published   *bool    `yaml:"published"`
	Lang        *string  `yaml:"lang"`
	Order       *int     `yaml:"order"`
}

// splitFrontMatter split a leading "---" delimited block from the markdown body.
// A document without an opening delimiter has no front-matter.
func splitFrontMatter(src []byte) (front, body []byte, err error) {
	src = bytes.TrimPrefix(src, utf8BOM)
	first, rest, ok := cutLine(src)
	if !bytes.Equal(first, frontMatterDelim) {
		return nil, src, nil
	}
	if !ok {
		return nil, nil, errors.New("unterminated front-matter")
	}

	block := rest
	for offset := 0; ; {
		line, remaining, more := cutLine(block[offset:])
		if bytes.Equal(line, frontMatterDelim) {
			return rest[:offset], remaining, nil
		}
		if !more {
			return nil, nil, errors.New("unterminated front-matter")
		}
		offset = len(block) - len(remaining)
	}
}

// cutLine split off the first line without its line ending
func cutLine(s []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(s, '\n')
	if i < 0 {
		return bytes.TrimRight(s, "\r"), nil, false
	}
	return bytes.TrimRight(s[:i], "\r"), s[i+1:], true
}

// parseLesson build a Lesson from a markdown file, applying defaults to absent fields
func parseLesson(courseID, slug string, src []byte, defaults Defaults) (*Lesson, error) {
	front, body, err := splitFrontMatter(src)
	if err != nil {
		return nil, err
	}
	var fm lessonFrontMatter
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &fm); err != nil {
			return nil, errors.Wrap(err, "parsing front-matter")
		}
	}

	lesson := &Lesson{
		LessonMeta: LessonMeta{
			Title:       slug,
			Description: defaults.Description,
			Tags:        []string{},
			Published:   defaults.Published,
			Lang:        defaults.Lang,
			Course:      courseID,
			Order:       defaults.Order,
			Slug:        slug,
		},
		Content: string(body),
	}
	if fm.Title != nil && *fm.Title != "" {
		lesson.Title = *fm.Title
	}
	if fm.Description != nil {
		lesson.Description = *fm.Description
	}
	if fm.Tags != nil {
		lesson.Tags = fm.Tags
	}
	if fm.Published != nil {
		lesson.Published = *fm.Published
	}
	if fm.Lang != nil && *fm.Lang != "" {
		lesson.Lang = *fm.Lang
	}
	if fm.Order != nil {
		lesson.Order = *fm.Order
	}
	return lesson, nil
}
