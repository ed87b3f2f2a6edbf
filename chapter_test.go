package innsearch_test

import (
	"testing"

	"github.com/fwojciec/innsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapter_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid chapter", func(t *testing.T) {
		t.Parallel()

		chapter := &innsearch.Chapter{
			Index: 0,
			Name:  "1.00",
			URL:   "https://example.com/1-00/",
		}
		require.NoError(t, chapter.Validate())
	})

	t.Run("empty text is valid", func(t *testing.T) {
		t.Parallel()

		chapter := &innsearch.Chapter{Index: 3, Name: "1.03", URL: "https://example.com/1-03/"}
		require.NoError(t, chapter.Validate())
	})

	t.Run("negative index", func(t *testing.T) {
		t.Parallel()

		chapter := &innsearch.Chapter{Index: -1, Name: "x", URL: "y"}
		err := chapter.Validate()
		assert.Equal(t, innsearch.EINVALID, innsearch.ErrorCode(err))
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()

		chapter := &innsearch.Chapter{Index: 0, URL: "y"}
		err := chapter.Validate()
		assert.Equal(t, innsearch.EINVALID, innsearch.ErrorCode(err))
	})

	t.Run("missing URL", func(t *testing.T) {
		t.Parallel()

		chapter := &innsearch.Chapter{Index: 0, Name: "x"}
		err := chapter.Validate()
		assert.Equal(t, innsearch.EINVALID, innsearch.ErrorCode(err))
	})
}

func TestChapter_Identity(t *testing.T) {
	t.Parallel()

	chapter := &innsearch.Chapter{Index: 1, Name: "1.01", URL: "https://example.com/1-01/", Text: "body"}
	assert.Equal(t, innsearch.ChapterIdentity{Name: "1.01", URL: "https://example.com/1-01/"}, chapter.Identity())
}
