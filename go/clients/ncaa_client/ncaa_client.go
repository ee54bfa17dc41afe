package ncaa_client

import (
	"github.com/bracketpool/calcutta/go/clients"
)

type NCAAClient struct {
	*clients.BaseClient
}

func NewNCAAClient() *NCAAClient {
	client := &NCAAClient{
		BaseClient: clients.NewBaseClient(BaseURL),
	}

	client.SetHeader(JsonHeader, JsonContentType)

	return client
}
