package libs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage prefers the CLOUDINARY_URL form when set.
func NewCloudinaryStorage(cloudURL, cloudName, apiKey, apiSecret, folder string) (*CloudinaryStorage, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if cloudURL != "" {
		cld, err = cloudinary.NewFromURL(cloudURL)
	} else {
		cld, err = cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		// cloudinary files audio under the video resource type
		return "video"
	default:
		return "raw"
	}
}

// Save returns a key of the form "<resource type>:<public id>".
func (s *CloudinaryStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) (StoredFile, error) {
	rt := resourceType(contentType)
	publicID := key
	if rt != "raw" {
		publicID = strings.TrimSuffix(key, path.Ext(key))
	}

	resp, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       s.folder,
		ResourceType: rt,
	})
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to upload to cloudinary: %w", err)
	}
	if resp == nil {
		return StoredFile{}, fmt.Errorf("cloudinary response is nil")
	}
	if resp.Error.Message != "" {
		return StoredFile{}, fmt.Errorf("cloudinary upload failed: %s", resp.Error.Message)
	}

	url := resp.SecureURL
	if url == "" {
		url = resp.URL
	}
	return StoredFile{Key: rt + ":" + resp.PublicID, URL: url}, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	rt, publicID, found := strings.Cut(key, ":")
	if !found {
		rt, publicID = "image", key
	}

	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: rt,
	})
	if err != nil {
		return fmt.Errorf("failed to delete from cloudinary: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("cloudinary deletion failed: %s", result.Result)
	}
	return nil
}
