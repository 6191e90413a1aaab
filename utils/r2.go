// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxProofImageBytes caps a decoded screenshot proof.
const MaxProofImageBytes = 5 * 1024 * 1024

var ErrInvalidProofImage = errors.New("invalid proof image")

var proofImageExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// objectPutter is the part of *s3.Client the proof store needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2ProofStore uploads screenshot proofs to Cloudflare R2 over the S3 API.
type R2ProofStore struct {
	client     objectPutter
	bucket     string
	cdnBaseURL string
}

func NewR2ProofStore(ctx context.Context, c R2Config) (*R2ProofStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2ProofStore{
		client:     client,
		bucket:     c.Bucket,
		cdnBaseURL: strings.TrimRight(c.CDNBaseURL, "/"),
	}, nil
}

// UploadProofImage decodes a base64 (optionally data-URI) screenshot, stores
// it under proofs/<user>/<mission>/ and returns its public URL.
func (s *R2ProofStore) UploadProofImage(ctx context.Context, userID, missionID, encoded string) (string, error) {
	data, contentType, err := DecodeProofImage(encoded)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("proofs/%s/%s/%s.%s", userID, missionID, uuid.NewString(), proofImageExt[contentType])
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}

// DecodeProofImage returns the raw bytes and sniffed content type of a base64 image.
func DecodeProofImage(encoded string) ([]byte, string, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidProofImage)
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > MaxProofImageBytes {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidProofImage, MaxProofImageBytes)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidProofImage, err)
	}

	contentType := http.DetectContentType(data)
	if _, ok := proofImageExt[contentType]; !ok {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", ErrInvalidProofImage, contentType)
	}
	return data, contentType, nil
}
