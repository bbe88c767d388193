// Package mocks provides testify mocks for the remote backend and
// audit repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"boardsmcp/internal/domain/audit"
	"boardsmcp/internal/domain/workitem"
)

// Backend is a mock for workitem.Backend.
type Backend struct {
	mock.Mock
}

func (m *Backend) CreateWorkItem(ctx context.Context, project string, typ workitem.Type, fields workitem.CreateFields) (*workitem.Record, error) {
	args := m.Called(ctx, project, typ, fields)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) UpdateWorkItem(ctx context.Context, project string, id int, fields workitem.UpdateFields) (*workitem.Record, error) {
	args := m.Called(ctx, project, id, fields)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) DeleteWorkItem(ctx context.Context, project string, id int) error {
	args := m.Called(ctx, project, id)
	return args.Error(0)
}

func (m *Backend) GetWorkItem(ctx context.Context, project string, id int) (*workitem.Record, error) {
	args := m.Called(ctx, project, id)
	if rec, ok := args.Get(0).(*workitem.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Backend) LinkParentChild(ctx context.Context, project string, parentID, childID int) error {
	args := m.Called(ctx, project, parentID, childID)
	return args.Error(0)
}

// AuditRepository is a mock for audit.Repository.
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Log(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]audit.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
