package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// ArtifactStore persists produced artifacts and returns opaque refs the
// caller can hand out (URLs for blob storage, mem:// handles in memory)
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (ref string, err error)
}

type azureArtifactStore struct {
	client    *azblob.Client
	account   string
	container string
}

// NewAzureArtifactStore creates an artifact store backed by Azure blob
// storage. Saved artifacts are addressable by their blob URL.
func NewAzureArtifactStore(accountName, accountKey, container string) (ArtifactStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArtifactStore{
		client:    client,
		account:   accountName,
		container: container,
	}, nil
}

func (s *azureArtifactStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := s.client.UploadStream(ctx, s.container, name, bytes.NewReader(data), nil); err != nil {
		return "", fmt.Errorf("artifact upload failed: %w", err)
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", s.account, s.container, name), nil
}
