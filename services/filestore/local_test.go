package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "/uploads/")

	p, err := store.Save(context.Background(), "submissions/TM00001/SRS_1_doc.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "submissions/TM00001/SRS_1_doc.pdf", p)

	data, err := os.ReadFile(filepath.Join(root, "submissions", "TM00001", "SRS_1_doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, "/uploads/submissions/TM00001/SRS_1_doc.pdf", store.URL(p))
}

func TestLocal_SaveRejectsEscapingNames(t *testing.T) {
	store := NewLocal(t.TempDir(), "/uploads")
	for _, name := range []string{"", "../secret", "a/../../b", "a/./b"} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Save(context.Background(), name, strings.NewReader("x"))
			assert.Equal(t, errInvalidName, err)
		})
	}
}

func TestLocal_URL(t *testing.T) {
	store := NewLocal(t.TempDir(), "/uploads")
	assert.Equal(t, "", store.URL(""))
	assert.Equal(t, "/uploads/a.pdf", store.URL("a.pdf"))
}
