package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/wishbridge-backend/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "wb-prod"}

	assert.Equal(t, "projects/wb-prod/topics/bids", c.topicResourceName(" bids "))
	assert.Equal(t, "projects/other/topics/x", c.topicResourceName("projects/other/topics/x"))
	assert.Empty(t, c.topicResourceName(""))
	assert.Empty(t, (&Client{}).topicResourceName("bids"))
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	names := topicNames(config.PubSubConfig{BidsTopic: "bids", NotificationTopic: "  "})
	assert.Equal(t, []string{"bids"}, names)
}

func TestClientOptionsPrecedence(t *testing.T) {
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/x.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/x.json"}), 1)
	assert.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestNilClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("bids"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
