package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// CloserMock is a service with a Close(context.Context) error method.
type CloserMock struct {
	mock.Mock
}

// NewCloserMock creates a [CloserMock] asserting its expectations when the test ends.
func NewCloserMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *CloserMock {
	m := &CloserMock{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CloserMock) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ExpectClose expects one call to Close returning err.
func (m *CloserMock) ExpectClose(err error) *mock.Call {
	return m.On("Close", mock.Anything).Return(err).Once()
}
