package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	defaultVersion = "latest"
	refPrefix      = "secret://"
)

var secretManagerClientFactory = func(ctx context.Context, opts ...option.ClientOption) (secretManagerClient, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Fetcher resolves secret:// references against Cloud Secret Manager and
// caches resolved values for the process lifetime.
type Fetcher struct {
	client         secretManagerClient
	defaultProject string
	logger         *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// Option customises Fetcher behaviour.
type Option func(*Fetcher)

// WithLogger attaches a logger used for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithDefaultProject sets the project used for refs without an explicit project segment.
func WithDefaultProject(projectID string) Option {
	return func(f *Fetcher) {
		f.defaultProject = strings.TrimSpace(projectID)
	}
}

// WithSecretManagerClient injects a client, primarily for tests.
func WithSecretManagerClient(client secretManagerClient) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewFetcher constructs a Fetcher backed by Cloud Secret Manager.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger: zap.NewNop(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.client == nil {
		client, err := secretManagerClientFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets: create client: %w", err)
		}
		f.client = client
	}
	return f, nil
}

// Close releases the underlying Secret Manager client.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}

// Resolve fetches the value behind a secret://project/name[#version] reference.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	if f == nil || f.client == nil {
		return "", errors.New("secrets: fetcher not initialised")
	}

	project, name, version, err := parseReference(ref, f.defaultProject)
	if err != nil {
		return "", err
	}

	resource := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, name, version)

	f.mu.RLock()
	cached, ok := f.cache[resource]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resource,
	})
	if err != nil {
		f.logger.Warn("secret resolution failed", zap.String("secret", maskReference(ref)), zap.Error(err))
		return "", fmt.Errorf("secrets: access %s: %w", maskReference(ref), err)
	}

	value := string(resp.GetPayload().GetData())

	f.mu.Lock()
	f.cache[resource] = value
	f.mu.Unlock()

	return value, nil
}

func parseReference(ref, defaultProject string) (project, name, version string, err error) {
	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, refPrefix) {
		return "", "", "", fmt.Errorf("secrets: unsupported reference %q", maskReference(ref))
	}
	trimmed = strings.TrimPrefix(trimmed, refPrefix)

	version = defaultVersion
	if idx := strings.LastIndex(trimmed, "#"); idx >= 0 {
		if v := strings.TrimSpace(trimmed[idx+1:]); v != "" {
			version = v
		}
		trimmed = trimmed[:idx]
	}

	parts := strings.SplitN(trimmed, "/", 2)
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		project, name = parts[0], parts[1]
	case len(parts) == 1 && parts[0] != "":
		project, name = defaultProject, parts[0]
	}
	if project == "" || name == "" {
		return "", "", "", fmt.Errorf("secrets: malformed reference %q", maskReference(ref))
	}
	return project, name, version, nil
}

func maskReference(ref string) string {
	trimmed := strings.TrimSpace(ref)
	if len(trimmed) <= 12 {
		return "secret://***"
	}
	return trimmed[:12] + "***"
}
