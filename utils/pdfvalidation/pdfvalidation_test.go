package pdfvalidation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePDFBytes_MissingHeader(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("hello world"), SubmissionFileLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "Invalid PDF file: missing PDF header", result.Error)
}

func TestValidatePDFBytes_TooLarge(t *testing.T) {
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 11*1024*1024)...)

	result, err := ValidatePDFBytes(content, CourseFileLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "10MB")
}

func TestValidatePDFBytes_Unreadable(t *testing.T) {
	result, err := ValidatePDFBytes([]byte("%PDF-1.4\nnot really a pdf\n%%EOF"), SubmissionFileLimits)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Error, "Failed to read PDF")
}

func TestSanitizePDF_TrimsTrailingGarbage(t *testing.T) {
	in := []byte("%PDF-1.4\nbody\n%%EOF\n\ngarbage")
	assert.Equal(t, "%PDF-1.4\nbody\n%%EOF\n\n", string(sanitizePDF(in)))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("Homework.PDF", ""))
	assert.True(t, IsPDF("blob", "application/pdf"))
	assert.False(t, IsPDF("notes.docx", "application/octet-stream"))
}
