package ingestion_engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	objectclient "github.com/markdave123-py/contexta-ingest/internal/core/object-client"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

func TestGenerateImageID(t *testing.T) {
	data := []byte("png bytes")
	sum := md5.Sum(data)
	want := "report_img_007_" + hex.EncodeToString(sum[:])[:8]

	assert.Equal(t, want, GenerateImageID("report.pdf", 7, data))
	assert.Equal(t, want, GenerateImageID("uploads/2024/report.pdf", 7, data), "directories are ignored")
	assert.Equal(t, GenerateImageID("report.pdf", 7, data), GenerateImageID("report.pdf", 7, data))

	assert.NotEqual(t, want, GenerateImageID("report.pdf", 8, data))
	assert.NotEqual(t, want, GenerateImageID("report.pdf", 7, []byte("other bytes")))
	assert.NotEqual(t, want, GenerateImageID("summary.pdf", 7, data))

	assert.Regexp(t, regexp.MustCompile(`^archive\.v2_img_123_[0-9a-f]{8}$`), GenerateImageID("archive.v2.pdf", 123, data))
}

func TestNewImageRecordsAreUniquePerDocument(t *testing.T) {
	raws := []models.RawImage{
		{Data: []byte{1, 2, 3}, Index: 0},
		{Data: []byte{1, 2, 3}, Index: 1},
		{Data: []byte{4, 5, 6}, Index: 2},
	}
	records := NewImageRecords("deck.pdf", raws)
	require.Len(t, records, 3)

	seen := map[string]bool{}
	for _, r := range records {
		assert.False(t, seen[r.ImageID], "duplicate id %s", r.ImageID)
		seen[r.ImageID] = true
		assert.Equal(t, r.ImageID+".png", r.FileName)
		assert.Equal(t, "png", r.Format)
		assert.False(t, r.Stored())
		assert.False(t, r.Described())
	}
}

func TestStoreImagesWritesToBucketDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bucket")
	store := NewImageStore(objectclient.NewLocalObjectClient(dir), time.Second, StoreFailureSkip, quietLogger())

	records := NewImageRecords("deck.pdf", []models.RawImage{{Data: []byte("one"), Index: 0}, {Data: []byte("two"), Index: 1}})
	stored, err := store.StoreImages(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, r := range stored {
		require.True(t, r.Stored())
		assert.Equal(t, filepath.Join(dir, r.ImageID+".png"), r.StoragePath)
		got, err := os.ReadFile(r.StoragePath)
		require.NoError(t, err)
		assert.Equal(t, r.Data, got)
	}

	// storing the same images again overwrites in place
	again, err := store.StoreImages(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, stored[0].StoragePath, again[0].StoragePath)
}

func TestStoreImagesSkipPolicyDropsFailures(t *testing.T) {
	obj := newMemObjectClient()
	records := NewImageRecords("deck.pdf", []models.RawImage{
		{Data: []byte("a"), Index: 0},
		{Data: []byte("b"), Index: 1},
		{Data: []byte("c"), Index: 2},
	})
	obj.fail[records[1].FileName] = true

	store := NewImageStore(obj, 0, StoreFailureSkip, quietLogger())
	stored, err := store.StoreImages(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, records[0].ImageID, stored[0].ImageID)
	assert.Equal(t, records[2].ImageID, stored[1].ImageID)
	assert.Equal(t, "mem://"+records[2].FileName, stored[1].StoragePath)

	// input records are untouched
	assert.False(t, records[0].Stored())
}

func TestStoreImagesAbortPolicyFails(t *testing.T) {
	obj := newMemObjectClient()
	records := NewImageRecords("deck.pdf", []models.RawImage{{Data: []byte("a"), Index: 0}})
	obj.fail[records[0].FileName] = true

	store := NewImageStore(obj, 0, StoreFailureAbort, quietLogger())
	_, err := store.StoreImages(context.Background(), records)
	require.ErrorIs(t, err, core.ErrStorage)
}
