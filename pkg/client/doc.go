// Package client is the HTTP transport for the entity repositories.
//
// A Client sends JSON requests to one API base URL, merges default headers
// with per-call headers, and turns every non-2xx response into an *APIError.
// It implements repository.Requester, so it can back a repository.Manager
// directly:
//
//	c, err := client.New("https://api.example.com/v1",
//	    client.WithAPIKey(os.Getenv("API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, err := repository.NewManager(c, widgets.Descriptors())
//
// # Raw requests
//
// The verb helpers return the response with its body fully read:
//
//	resp, err := c.Post(ctx, "widget/create", client.RequestOptions{
//	    JSON: map[string]any{"name": "Blue"},
//	})
//	var created map[string]any
//	err = resp.Decode(&created)
//
// # Caching
//
// Successful GET responses decoded through RequestJSON or DoJSON can be
// cached in memory with WithCacheTTL, or in Redis with WithCache and the
// rediscache package:
//
//	c, _ := client.New(baseURL, client.WithCacheTTL(30*time.Second))
//
// # Authentication
//
// WithAPIKey and WithBearerToken send a static Authorization header.
// WithTokenSource fetches (and refreshes) it from an oauth2.TokenSource,
// and WithCertDir presents a client certificate for mutual TLS.
//
// # Entities
//
// EntitiesClient bundles a Client and a Manager:
//
//	ec, _ := client.NewEntitiesClient(baseURL, widgets.Descriptors())
//	repo, _ := ec.Repository("widget")
//	list, _ := repo.FetchList(ctx, repository.ListOptions{Page: 1})
package client
