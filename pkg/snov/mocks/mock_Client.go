// Package mocks provides test doubles for the snov client.
package mocks

import (
	"context"

	snov "github.com/sells-group/leadgen-cli/pkg/snov"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// AddURLForSearch provides a mock function with given fields: ctx, profileURL
func (_m *MockClient) AddURLForSearch(ctx context.Context, profileURL string) error {
	ret := _m.Called(ctx, profileURL)

	if len(ret) == 0 {
		panic("no return value specified for AddURLForSearch")
	}

	return ret.Error(0)
}

// GetEmailsFromURL provides a mock function with given fields: ctx, profileURL
func (_m *MockClient) GetEmailsFromURL(ctx context.Context, profileURL string) (*snov.URLSearchResponse, error) {
	ret := _m.Called(ctx, profileURL)

	if len(ret) == 0 {
		panic("no return value specified for GetEmailsFromURL")
	}

	var r0 *snov.URLSearchResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*snov.URLSearchResponse)
	}
	return r0, ret.Error(1)
}

// StartNameDomainSearch provides a mock function with given fields: ctx, row
func (_m *MockClient) StartNameDomainSearch(ctx context.Context, row snov.NameDomainRow) (string, error) {
	ret := _m.Called(ctx, row)

	if len(ret) == 0 {
		panic("no return value specified for StartNameDomainSearch")
	}

	return ret.String(0), ret.Error(1)
}

// GetNameDomainResult provides a mock function with given fields: ctx, taskHash
func (_m *MockClient) GetNameDomainResult(ctx context.Context, taskHash string) (*snov.NameDomainResult, error) {
	ret := _m.Called(ctx, taskHash)

	if len(ret) == 0 {
		panic("no return value specified for GetNameDomainResult")
	}

	var r0 *snov.NameDomainResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*snov.NameDomainResult)
	}
	return r0, ret.Error(1)
}

// AddProspectToList provides a mock function with given fields: ctx, p
func (_m *MockClient) AddProspectToList(ctx context.Context, p snov.ProspectRecord) (*snov.AddProspectResponse, error) {
	ret := _m.Called(ctx, p)

	if len(ret) == 0 {
		panic("no return value specified for AddProspectToList")
	}

	var r0 *snov.AddProspectResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*snov.AddProspectResponse)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
