package util

import (
	"context"
	"fmt"
	"io"
	"strings"

	"coursepulse/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

type CloudinaryClient struct {
	cld *cloudinary.Cloudinary
	cfg *config.Config
}

func NewCloudinaryClient(cfg *config.Config) (*CloudinaryClient, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not configured")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryClient{
		cld: cld,
		cfg: cfg,
	}, nil
}

// UploadAvatar uploads a user avatar and returns the delivery URL. Avatars
// are served square-cropped as WebP.
func (c *CloudinaryClient) UploadAvatar(ctx context.Context, reader io.Reader, filename string) (string, error) {
	publicID := "avatars/" + uuid.New().String()

	result, err := c.cld.Upload.Upload(ctx, reader, uploader.UploadParams{
		PublicID:       publicID,
		Transformation: "c_fill,w_256,h_256,q_auto,f_webp",
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("error uploading avatar to cloudinary: %w", err)
	}

	url := result.SecureURL
	url = strings.Replace(url, "/upload/", "/upload/c_fill,w_256,h_256,q_auto,f_webp/", 1)
	return url, nil
}
