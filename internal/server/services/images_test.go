package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/basementofbooks/internal/common"
	sc "github.com/dmitrijs2005/basementofbooks/internal/server/config"
	"github.com/dmitrijs2005/basementofbooks/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageSvc(t *testing.T) (*ImageService, *harness) {
	t.Helper()
	h := newHarness(t)
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "books",
	}
	return NewImageService(h.guard, cfg), h
}

func stubPresign(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func Test_getPresignClient_AppliesConfig(t *testing.T) {
	svc, _ := newImageSvc(t)
	stubPresign(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getPresignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestUploadURL(t *testing.T) {
	svc, h := newImageSvc(t)
	h.store.addUser("Sam", sellerEmail, models.RoleSeller, true)
	stubPresign(t)

	var gotBucket, gotKey string
	var gotExpiry time.Duration
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket, gotKey = *in.Bucket, *in.Key
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		gotExpiry = po.Expires
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/books/" + gotKey}, nil
	}

	up, err := svc.UploadURL(as(sellerEmail))
	require.NoError(t, err)
	assert.Equal(t, "books", gotBucket)
	assert.Equal(t, gotKey, up.Key)
	assert.True(t, strings.HasPrefix(up.Key, "products/"))
	assert.True(t, strings.HasSuffix(up.URL, up.Key))
	assert.Equal(t, imageURLValidity, gotExpiry)
}

func TestUploadURL_Errors(t *testing.T) {
	svc, h := newImageSvc(t)
	h.store.addUser("Sam", sellerEmail, models.RoleSeller, true)
	h.store.addUser("Bea", buyerEmail, models.RoleBuyer, false)
	stubPresign(t)

	called := false
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		called = true
		return nil, errors.New("presign-fail")
	}

	_, err := svc.UploadURL(as(buyerEmail))
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.False(t, called, "buyers never reach storage")

	_, err = svc.UploadURL(as(sellerEmail))
	assert.EqualError(t, err, "presign-fail")
}

func TestGetRandomStorageKey_Unique(t *testing.T) {
	a, b := GetRandomStorageKey(), GetRandomStorageKey()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "products/"))
}
