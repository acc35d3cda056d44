// Package mocks provides test doubles for the rapidapi client.
package mocks

import (
	"context"

	rapidapi "github.com/sells-group/leadgen-cli/pkg/rapidapi"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

func (_m *MockClient) docs(method string, ret mock.Arguments) ([]map[string]any, error) {
	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}
	var r0 []map[string]any
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]map[string]any)
	}
	return r0, ret.Error(1)
}

func (_m *MockClient) doc(method string, ret mock.Arguments) (map[string]any, error) {
	if len(ret) == 0 {
		panic("no return value specified for " + method)
	}
	var r0 map[string]any
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[string]any)
	}
	return r0, ret.Error(1)
}

// SearchJobs provides a mock function with given fields: ctx, params
func (_m *MockClient) SearchJobs(ctx context.Context, params rapidapi.JobSearchParams) ([]map[string]any, error) {
	return _m.docs("SearchJobs", _m.Called(ctx, params))
}

// GetHiringTeam provides a mock function with given fields: ctx, jobID, jobURL
func (_m *MockClient) GetHiringTeam(ctx context.Context, jobID string, jobURL string) ([]map[string]any, error) {
	return _m.docs("GetHiringTeam", _m.Called(ctx, jobID, jobURL))
}

// SearchPeople provides a mock function with given fields: ctx, keywords, company
func (_m *MockClient) SearchPeople(ctx context.Context, keywords string, company string) ([]map[string]any, error) {
	return _m.docs("SearchPeople", _m.Called(ctx, keywords, company))
}

// GetProfile provides a mock function with given fields: ctx, profileURL
func (_m *MockClient) GetProfile(ctx context.Context, profileURL string) (map[string]any, error) {
	return _m.doc("GetProfile", _m.Called(ctx, profileURL))
}

// GetProfilePosts provides a mock function with given fields: ctx, username
func (_m *MockClient) GetProfilePosts(ctx context.Context, username string) ([]map[string]any, error) {
	return _m.docs("GetProfilePosts", _m.Called(ctx, username))
}

// GetCompanyByID provides a mock function with given fields: ctx, id
func (_m *MockClient) GetCompanyByID(ctx context.Context, id string) (map[string]any, error) {
	return _m.doc("GetCompanyByID", _m.Called(ctx, id))
}

// GetCompanyByUsername provides a mock function with given fields: ctx, username
func (_m *MockClient) GetCompanyByUsername(ctx context.Context, username string) (map[string]any, error) {
	return _m.doc("GetCompanyByUsername", _m.Called(ctx, username))
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
