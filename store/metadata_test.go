package store

import (
	"io"
	"testing"

	"github.com/Sage-Bionetworks/RNCryptor/store/storage"
	"github.com/stretchr/testify/assert"
)

func TestMetadataRoundTrip(t *testing.T) {
	layer := storage.NewMemory()
	vault := NewStore(layer, "test")

	md := newMetadata([]byte("salty"), []byte("pepper"))
	assert.NoError(t, vault.writeMetadata(md))

	// The cache and the backend agree.
	got, err := vault.getStoreMetadata()
	assert.NoError(t, err)
	assert.Equal(t, md, got)

	fetched, err := fetchMetadata(layer)
	assert.NoError(t, err)
	assert.Equal(t, md, fetched)

	r, _ := layer.GetReader(c_METADATA_KEY)
	raw, _ := io.ReadAll(r)
	assert.Equal(t,
		`{"version":1,"storeFormat":3,"encSalt":"c2FsdHk=","hmacSalt":"cGVwcGVy"}`,
		string(raw))
}

func TestCustomMetadata(t *testing.T) {
	layer := storage.NewMemory()
	vault := NewStore(layer, "test")
	vault.writeMetadata(newMetadata([]byte("salty"), []byte("pepper")))

	_, err := vault.GetMetadata("foo")
	assert.Equal(t, ErrMissingMetadata, err)

	assert.NoError(t, vault.PutMetadata("foo", "bar"))
	foo, err := vault.GetMetadata("foo")
	assert.NoError(t, err)
	assert.Equal(t, "bar", foo.(string))

	// Custom fields survive in the stored JSON.
	r, _ := layer.GetReader(c_METADATA_KEY)
	raw, _ := io.ReadAll(r)
	assert.Equal(t,
		`{"version":1,"storeFormat":3,"encSalt":"c2FsdHk=","hmacSalt":"cGVwcGVy","userData":{"foo":"bar"}}`,
		string(raw))
}

func TestCustomMetadataSeeded(t *testing.T) {
	layer := storage.NewMemory()
	vault := NewStore(layer, "test")

	layer.Seed(c_METADATA_KEY, []byte(`{"version":1,"userData":{"foo":"bar"}}`))
	foo, err := vault.GetMetadata("foo")
	assert.NoError(t, err)
	assert.Equal(t, "bar", foo.(string))
}
