// utils/proof.go
package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

var r2Client *s3.Client
var r2Bucket string
var cdnBaseURL string

// InitR2 configures the R2 client for payment proof storage. Optional:
// when the env vars are absent, uploads fall back to the local uploads
// directory.
func InitR2() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	r2Bucket = os.Getenv("R2_BUCKET_NAME")
	cdnBaseURL = os.Getenv("CDN_BASE_URL")
	if cdnBaseURL == "" {
		cdnBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	r2Client = s3.NewFromConfig(cfg)
	return nil
}

// decodeDataURL splits a "data:image/png;base64,..." payload into bytes,
// mime type, and a file extension.
func decodeDataURL(dataURL string) ([]byte, string, string, error) {
	header, encoded, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:") {
		return nil, "", "", fmt.Errorf("not a data URL")
	}
	mimeType := strings.TrimPrefix(header, "data:")
	mimeType = strings.SplitN(mimeType, ";", 2)[0]
	ext := "png"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		ext = sub
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", "", fmt.Errorf("decode base64 payload: %w", err)
	}
	return data, mimeType, ext, nil
}

// UploadProofImage stores a payment receipt screenshot (base64 data URL
// from the mini app) and returns a URL for the admin prompt. R2 when
// configured, the local uploads dir otherwise.
func UploadProofImage(ctx context.Context, playerID, dataURL string) (string, error) {
	data, mimeType, ext, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("proofs/%s_%d.%s", slug.Make(playerID), time.Now().UnixNano(), ext)

	if r2Client == nil {
		name := strings.TrimPrefix(key, "proofs/")
		if err := WriteUpload(name, data); err != nil {
			return "", fmt.Errorf("local proof fallback: %w", err)
		}
		return "/uploads/" + name, nil
	}

	_, err = r2Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r2Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload proof to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", cdnBaseURL, key), nil
}
