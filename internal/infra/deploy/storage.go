package deploy

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
)

// StorageDeployer uploads the workspace to an S3-compatible bucket. R2 and
// MinIO both speak the S3 protocol, the endpoint in the credential bag
// decides which one this talks to.
type StorageDeployer struct {
	creds CredentialSource
}

var _ interfaces.Deployer = (*StorageDeployer)(nil)

func NewStorageDeployer(creds CredentialSource) *StorageDeployer {
	return &StorageDeployer{creds: creds}
}

func (d *StorageDeployer) Name() consts.DeployProvider {
	return consts.ProviderStorage
}

func (d *StorageDeployer) Deploy(ctx context.Context, req interfaces.DeployRequest) (*interfaces.DeployResult, error) {
	creds, err := d.creds.Get(ctx, consts.IntegrationStorage)
	if err != nil {
		return nil, err
	}
	bucket, err := creds.Require(consts.IntegrationStorage, "bucket")
	if err != nil {
		return nil, err
	}
	accessKey, err := creds.Require(consts.IntegrationStorage, "access_key_id")
	if err != nil {
		return nil, err
	}
	secretKey, err := creds.Require(consts.IntegrationStorage, "secret_access_key")
	if err != nil {
		return nil, err
	}
	region := creds.Get("region")
	if region == "" {
		region = "auto"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("err loading storage config, %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := creds.Get("endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	prefix := fmt.Sprintf("sites/%d", req.Order.ID)
	count, err := uploadTree(ctx, client, bucket, prefix, req.WorkspaceDir)
	if err != nil {
		return nil, err
	}

	url, err := siteURL(ctx, client, creds, bucket, prefix)
	if err != nil {
		return nil, err
	}
	return &interfaces.DeployResult{
		ExternalID: bucket + "/" + prefix,
		URL:        url,
		Detail:     fmt.Sprintf("%d files uploaded", count),
	}, nil
}

func uploadTree(ctx context.Context, client *s3.Client, bucket, prefix, dir string) (int, error) {
	var count int
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := prefix + "/" + filepath.ToSlash(rel)

		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String(detectContentType(key, data)),
			ContentLength: aws.Int64(int64(len(data))),
		})
		if err != nil {
			return errs.ProviderError{Provider: "storage", Err: fmt.Errorf("err uploading %s, %v", key, err)}
		}
		count++
		return nil
	})
	return count, err
}

// detectContentType sniffs the payload but trusts the extension for types
// the sniffer gets wrong.
func detectContentType(key string, data []byte) string {
	switch {
	case strings.HasSuffix(key, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(key, ".css"):
		return "text/css"
	case strings.HasSuffix(key, ".js"):
		return "text/javascript"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	}
	return http.DetectContentType(data)
}

// siteURL prefers a public base url and falls back to a presigned link to
// the entry page.
func siteURL(ctx context.Context, client *s3.Client, creds Credentials, bucket, prefix string) (string, error) {
	if public := creds.Get("public_base_url"); public != "" {
		return strings.TrimSuffix(public, "/") + "/" + prefix + "/index.html", nil
	}
	presigner := s3.NewPresignClient(client)
	presigned, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(prefix + "/index.html"),
	}, s3.WithPresignExpires(7*24*time.Hour))
	if err != nil {
		return "", errs.ProviderError{Provider: "storage", Err: fmt.Errorf("err presigning site url, %v", err)}
	}
	return presigned.URL, nil
}
