package client

import (
	"fmt"
	"strings"

	"github.com/wexample/go-api/pkg/entity"
	"github.com/wexample/go-api/pkg/repository"
)

// EntitiesClient is a Client that also owns a repository.Manager built over
// it, so entity repositories and raw requests share one transport.
type EntitiesClient struct {
	*Client
	manager *repository.Manager
}

// NewEntitiesClient creates a Client for baseURL and registers descriptors
// with a new Manager that uses it as its Requester.
//
//	ec, err := client.NewEntitiesClient(baseURL, widgets.Descriptors(),
//	    client.WithAPIKey(key),
//	)
//	repo, err := ec.Repository("widget")
func NewEntitiesClient(baseURL string, descriptors []repository.Descriptor, opts ...Option) (*EntitiesClient, error) {
	c, err := New(baseURL, opts...)
	if err != nil {
		return nil, err
	}
	return NewEntities(c, descriptors)
}

// NewEntities wraps an existing Client.
func NewEntities(c *Client, descriptors []repository.Descriptor, opts ...repository.ManagerOption) (*EntitiesClient, error) {
	if c == nil {
		return nil, fmt.Errorf("nil client")
	}
	m, err := repository.NewManager(c, descriptors,
		append([]repository.ManagerOption{repository.WithLogger(c.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &EntitiesClient{Client: c, manager: m}, nil
}

// Manager returns the repository manager.
func (ec *EntitiesClient) Manager() *repository.Manager { return ec.manager }

// Repository returns the repository for an entity name, entity.Type or entity.
func (ec *EntitiesClient) Repository(nameOrType any) (repository.Repository, error) {
	return ec.manager.Get(nameOrType)
}

// EntityEntrypoint joins an entity's canonical name with path, e.g.
// EntityEntrypoint("WidgetOwner", "/list") is "widget_owner/list".
func (ec *EntitiesClient) EntityEntrypoint(name, path string) string {
	return entity.CanonicalName(name) + "/" + strings.TrimLeft(path, "/")
}
