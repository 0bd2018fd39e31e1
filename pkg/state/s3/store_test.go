package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
	failPut error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	id := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[id] = body
	f.types[id] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeObjects()
	store := NewWithClient(fake, "bucket", "apps/")

	if _, ok, err := store.Load(ctx, "counter"); err != nil || ok {
		t.Fatalf("expected missing object, got ok=%v err=%v", ok, err)
	}
	if err := store.Save(ctx, "counter", []byte(`{"count":5}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := fake.objects["bucket/apps/counter.json"]; !ok {
		t.Fatalf("expected prefixed object key, got %v", fake.objects)
	}
	if fake.types["bucket/apps/counter.json"] != "application/json" {
		t.Fatalf("expected json content type")
	}
	got, ok, err := store.Load(ctx, "counter")
	if err != nil || !ok || string(got) != `{"count":5}` {
		t.Fatalf("unexpected load: %s ok=%v err=%v", got, ok, err)
	}
	if err := store.Delete(ctx, "counter"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Load(ctx, "counter"); ok {
		t.Fatalf("expected object to be deleted")
	}
}

func TestStoreWrapsPutErrors(t *testing.T) {
	fake := newFakeObjects()
	fake.failPut = errors.New("access denied")
	store := NewWithClient(fake, "bucket", "")
	err := store.Save(context.Background(), "counter", []byte("{}"))
	if err == nil || !errors.Is(err, fake.failPut) {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "bucket",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.bucket != "bucket" || store.client == nil {
		t.Fatalf("unexpected store: %+v", store)
	}
}
