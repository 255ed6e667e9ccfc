package appmock

import (
	"context"
	"io"
	"net/url"

	app "imaginify/src/app"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req app.CheckoutRequest) (*app.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*app.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*app.CompletedCheckout, error) {
	args := m.Called(payload, signature)
	if c := args.Get(0); c != nil {
		return c.(*app.CompletedCheckout), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, expression string) ([]string, error) {
	args := m.Called(ctx, expression)
	if ids := args.Get(0); ids != nil {
		return ids.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, rawIDToken string) (*app.Identity, error) {
	args := m.Called(ctx, rawIDToken)
	if id := args.Get(0); id != nil {
		return id.(*app.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockAssets struct {
	mock.Mock
}

func (m *MockAssets) UploadFile(ctx context.Context, uploadPath string, object io.Reader, size int64, contentType string) error {
	return m.Called(ctx, uploadPath, object, size, contentType).Error(0)
}

func (m *MockAssets) PresignedURL(ctx context.Context, key string) (*url.URL, error) {
	args := m.Called(ctx, key)
	if u := args.Get(0); u != nil {
		return u.(*url.URL), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssets) ListObjects(ctx context.Context, prefix string, filters []string) ([]*url.URL, error) {
	args := m.Called(ctx, prefix, filters)
	if urls := args.Get(0); urls != nil {
		return urls.([]*url.URL), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssets) DeleteFile(ctx context.Context, fileName string) error {
	return m.Called(ctx, fileName).Error(0)
}
