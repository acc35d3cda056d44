// Package mocks provides test doubles for the salesforce client.
package mocks

import (
	"context"

	salesforce "github.com/sells-group/leadgen-cli/pkg/salesforce"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Query provides a mock function with given fields: ctx, soql, out
func (_m *MockClient) Query(ctx context.Context, soql string, out any) error {
	ret := _m.Called(ctx, soql, out)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	return ret.Error(0)
}

// InsertCollection provides a mock function with given fields: ctx, sObjectName, records
func (_m *MockClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	ret := _m.Called(ctx, sObjectName, records)

	if len(ret) == 0 {
		panic("no return value specified for InsertCollection")
	}

	var r0 []salesforce.CollectionResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]salesforce.CollectionResult)
	}
	return r0, ret.Error(1)
}

// UpdateCollection provides a mock function with given fields: ctx, sObjectName, records
func (_m *MockClient) UpdateCollection(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	ret := _m.Called(ctx, sObjectName, records)

	if len(ret) == 0 {
		panic("no return value specified for UpdateCollection")
	}

	var r0 []salesforce.CollectionResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]salesforce.CollectionResult)
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
