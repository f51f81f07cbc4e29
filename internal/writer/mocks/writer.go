// Package mocks provides testify mocks for the writer package.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thoreinstein/cback/internal/media"
	"github.com/thoreinstein/cback/internal/writer"
)

// Writer is a mock writer.Writer.
type Writer struct {
	mock.Mock
}

var _ writer.Writer = (*Writer)(nil)

// NewWriter creates a Writer whose expectations are asserted at test
// cleanup.
func NewWriter(t interface {
	mock.TestingT
	Cleanup(func())
}) *Writer {
	m := &Writer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Writer) Device() string {
	return m.Called().String(0)
}

func (m *Writer) ScsiID() string {
	return m.Called().String(0)
}

func (m *Writer) HardwareID() string {
	return m.Called().String(0)
}

func (m *Writer) DriveSpeed() *int {
	ret := m.Called()
	if v := ret.Get(0); v != nil {
		return v.(*int)
	}
	return nil
}

func (m *Writer) Media() media.Profile {
	return m.Called().Get(0).(media.Profile)
}

func (m *Writer) Capabilities() writer.Capabilities {
	return m.Called().Get(0).(writer.Capabilities)
}

func (m *Writer) IsRewritable() bool {
	return m.Called().Bool(0)
}

func (m *Writer) RetrieveCapacity(ctx context.Context, entireDisc, useMulti bool) (media.Capacity, error) {
	ret := m.Called(ctx, entireDisc, useMulti)
	return ret.Get(0).(media.Capacity), ret.Error(1)
}

func (m *Writer) OpenTray(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Writer) CloseTray(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Writer) UnlockTray(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Writer) RefreshMedia(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Writer) InitializeImage(newDisc bool, tempDir, label string) error {
	return m.Called(newDisc, tempDir, label).Error(0)
}

func (m *Writer) AddImageEntry(path, graftPoint string) error {
	return m.Called(path, graftPoint).Error(0)
}

func (m *Writer) SetImageNewDisc(newDisc bool) error {
	return m.Called(newDisc).Error(0)
}

func (m *Writer) EstimatedImageSize(ctx context.Context) (float64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(float64), ret.Error(1)
}

func (m *Writer) WriteImage(ctx context.Context, imagePath string, newDisc, writeMulti bool) error {
	return m.Called(ctx, imagePath, newDisc, writeMulti).Error(0)
}
