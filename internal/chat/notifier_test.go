package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(api *fakeAPI, dryRun bool, surgery, shikigami Destination) *Notifier {
	resolver := NewResolver(api, ResolverConfig{}, nil)
	sender := NewSender(api, dryRun, nil)
	return NewNotifier(resolver, sender, surgery, shikigami, nil)
}

func directoryAPI() *fakeAPI {
	return &fakeAPI{
		channels: []Channel{
			{ID: "C001", Name: "surgery-notifications"},
			{ID: "C002", Name: "shikigami-feed"},
		},
		users: []User{
			testUser("U001", "boss", "", "Surgery Boss"),
			testUser("U002", "ops", "", "Shikigami Ops"),
		},
	}
}

func TestNotifier_UnsetChannelSkipsWithoutResolution(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{}, Destination{})

	res, err := n.SendToSurgeryChannel(context.Background(), "hello", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "channel not resolvable", res.Reason)
	assert.Zero(t, api.listChannelCalls)
}

func TestNotifier_UnresolvableChannelSkips(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{Channel: "#no-such"}, Destination{})

	res, err := n.SendToSurgeryChannel(context.Background(), "hello", false)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "channel not resolvable", res.Reason)
	assert.Empty(t, api.posts)
}

func TestNotifier_PingChannelPrependsMention(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{Channel: "#surgery-notifications"}, Destination{})

	_, err := n.SendToSurgeryChannel(context.Background(), "hello", true)
	require.NoError(t, err)
	require.Len(t, api.posts, 1)
	assert.True(t, strings.HasPrefix(api.posts[0].Text, "<!channel> "), "got %q", api.posts[0].Text)
	assert.Equal(t, "C001", api.posts[0].ChannelID)
}

func TestNotifier_DMDisabledSkips(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{Manager: "boss", ManagerDM: false}, Destination{})

	res, err := n.DMSurgeryManager(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "surgery_manager_dm=false", res.Reason)
	assert.Zero(t, api.openDMCalls)
}

func TestNotifier_DMUnsetManagerSkips(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{ManagerDM: true}, Destination{})

	res, err := n.DMSurgeryManager(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "unset:surgery_manager", res.Reason)
}

func TestNotifier_DMResolvesOpensAndSends(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{Manager: "boss", ManagerDM: true}, Destination{})

	res, err := n.DMSurgeryManager(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusSent, res.Status)
	require.Len(t, api.posts, 1)
	assert.Equal(t, "DU001", api.posts[0].ChannelID)
	assert.Equal(t, "hello", api.posts[0].Text)
}

func TestNotifier_DMUnresolvableManagerSkips(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false, Destination{Manager: "nobody", ManagerDM: true}, Destination{})

	res, err := n.DMSurgeryManager(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "surgery_manager not resolvable", res.Reason)
	assert.Empty(t, api.posts)
}

func TestNotifier_ShikigamiFeedUsesOwnChannel(t *testing.T) {
	api := directoryAPI()
	n := newTestNotifier(api, false,
		Destination{Channel: "#surgery-notifications"},
		Destination{Channel: "#shikigami-feed"},
	)

	_, err := n.SendToShikigamiFeed(context.Background(), "[surgery] hello", false)
	require.NoError(t, err)
	require.Len(t, api.posts, 1)
	assert.Equal(t, "C002", api.posts[0].ChannelID)
}

func TestNotifier_DeliveryErrorReturnedToCaller(t *testing.T) {
	api := directoryAPI()
	api.postErr = &APIError{Code: "msg_too_long"}
	n := newTestNotifier(api, false, Destination{Channel: "#surgery-notifications"}, Destination{})

	res, err := n.SendToSurgeryChannel(context.Background(), "hello", false)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, res.Status)
}
