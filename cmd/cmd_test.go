package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/pdfingest/internal/config"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// MockApp mocks the App interface.
type MockApp struct {
	mock.Mock
}

func (m *MockApp) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockApp) ProcessOnce(ctx context.Context, bucket, key string) (pipeline.Result, error) {
	args := m.Called(ctx, bucket, key)
	return args.Get(0).(pipeline.Result), args.Error(1)
}

func (m *MockApp) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// useMockApp swaps the factory for one returning m. Tests using it must not
// run in parallel because newApp and the environment are process-wide.
func useMockApp(t *testing.T, m *MockApp) *config.Config {
	t.Helper()
	t.Setenv("PDFINGEST_STORAGE_BACKEND", "memory")
	t.Setenv("PDFINGEST_DOCSTORE_BACKEND", "memory")
	t.Setenv("PDFINGEST_BUS_BACKEND", "memory")
	t.Setenv("KAFKA_TOPIC", "pdf-events")

	var seen config.Config
	orig := newApp
	newApp = func(_ context.Context, cfg *config.Config) (App, error) {
		seen = *cfg
		return m, nil
	}
	t.Cleanup(func() { newApp = orig })
	return &seen
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", t.TempDir()+"/none.env"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProcessCommandUsesDefaultTarget(t *testing.T) {
	m := &MockApp{}
	seen := useMockApp(t, m)
	m.On("ProcessOnce", mock.Anything, "esg-x-v8", "aaaaaaa.pdf").
		Return(pipeline.Result{DocumentID: "doc-1", ElementCount: 3}, nil)
	m.On("Close", mock.Anything).Return(nil)

	out, err := execute(t, "process")
	require.NoError(t, err)
	assert.Contains(t, out, "stored document doc-1 with 3 elements")
	assert.Equal(t, "pdf-events", seen.Bus.Topic)
	m.AssertExpectations(t)
}

func TestProcessCommandFlagsOverrideTarget(t *testing.T) {
	m := &MockApp{}
	useMockApp(t, m)
	m.On("ProcessOnce", mock.Anything, "reports", "q3.pdf").
		Return(pipeline.Result{}, errors.New("get object: object not found"))
	m.On("Close", mock.Anything).Return(nil)

	_, err := execute(t, "process", "--bucket", "reports", "--key", "q3.pdf")
	require.ErrorContains(t, err, "object not found")
	m.AssertExpectations(t)
}

func TestServeCommandRunsApp(t *testing.T) {
	m := &MockApp{}
	useMockApp(t, m)
	m.On("Run", mock.Anything).Return(nil)

	_, err := execute(t, "serve")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestCommandFailsOnInvalidConfig(t *testing.T) {
	m := &MockApp{}
	useMockApp(t, m)
	t.Setenv("PDFINGEST_BUS_BACKEND", "carrier-pigeon")

	_, err := execute(t, "process")
	require.ErrorContains(t, err, "unsupported bus.backend")
	m.AssertNotCalled(t, "ProcessOnce", mock.Anything, mock.Anything, mock.Anything)
}
