package chat

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory chat API shared by the package tests. It serves
// the directory in pages of the requested limit and records every call.
type fakeAPI struct {
	channels []Channel
	users    []User

	listChannelCalls int
	listUserCalls    int
	openDMCalls      int
	posts            []postedMessage

	listErr   error
	openDMErr error
	postErr   error
}

type postedMessage struct {
	ChannelID string
	Text      string
}

func (f *fakeAPI) ListChannels(_ context.Context, cursor string, limit int) ([]Channel, string, error) {
	f.listChannelCalls++
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	page, next := paginate(f.channels, cursor, limit)
	return page, next, nil
}

func (f *fakeAPI) ListUsers(_ context.Context, cursor string, limit int) ([]User, string, error) {
	f.listUserCalls++
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	page, next := paginate(f.users, cursor, limit)
	return page, next, nil
}

func (f *fakeAPI) OpenDM(_ context.Context, userID string) (string, error) {
	f.openDMCalls++
	if f.openDMErr != nil {
		return "", f.openDMErr
	}
	return "D" + userID, nil
}

func (f *fakeAPI) PostMessage(_ context.Context, channelID, text string) (string, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	f.posts = append(f.posts, postedMessage{ChannelID: channelID, Text: text})
	return fmt.Sprintf("17000000%02d.000100", len(f.posts)), nil
}

func paginate[T any](items []T, cursor string, limit int) ([]T, string) {
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := start + limit
	if end >= len(items) {
		return items[start:], ""
	}
	return items[start:end], strconv.Itoa(end)
}

func testUser(id, name, display, real string) User {
	u := User{ID: id, Name: name}
	u.Profile.DisplayName = display
	u.Profile.RealName = real
	return u
}

func newTestResolver(api *fakeAPI, pageSize int) *Resolver {
	return NewResolver(api, ResolverConfig{PageSize: pageSize}, nil)
}

func TestResolveChannel_EmptyInput(t *testing.T) {
	api := &fakeAPI{}
	r := newTestResolver(api, 1000)

	id, ok := r.ResolveChannel(context.Background(), "")
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Zero(t, api.listChannelCalls, "empty input must not hit the network")
}

func TestResolveChannel_LiteralIDPassthrough(t *testing.T) {
	api := &fakeAPI{}
	r := newTestResolver(api, 1000)

	for _, literal := range []string{"C0123", "D0456", "G0789"} {
		id, ok := r.ResolveChannel(context.Background(), literal)
		require.True(t, ok)
		assert.Equal(t, literal, id)
	}
	assert.Zero(t, api.listChannelCalls, "literal IDs must not trigger a scan")
}

func TestResolveChannel_StripsSigilAndMatches(t *testing.T) {
	api := &fakeAPI{channels: []Channel{
		{ID: "C001", Name: "general"},
		{ID: "C002", Name: "surgery-notifications"},
	}}
	r := newTestResolver(api, 1000)

	id, ok := r.ResolveChannel(context.Background(), "#surgery-notifications")
	require.True(t, ok)
	assert.Equal(t, "C002", id)
}

func TestResolveChannel_PaginatesUntilMatch(t *testing.T) {
	channels := make([]Channel, 0, 5)
	for i := 0; i < 5; i++ {
		channels = append(channels, Channel{ID: fmt.Sprintf("C%03d", i), Name: fmt.Sprintf("chan-%d", i)})
	}
	api := &fakeAPI{channels: channels}
	r := newTestResolver(api, 2)

	id, ok := r.ResolveChannel(context.Background(), "chan-4")
	require.True(t, ok)
	assert.Equal(t, "C004", id)
	assert.Equal(t, 3, api.listChannelCalls)
}

func TestResolveChannel_CachesResult(t *testing.T) {
	api := &fakeAPI{channels: []Channel{{ID: "C001", Name: "general"}}}
	r := newTestResolver(api, 1000)

	for i := 0; i < 3; i++ {
		id, ok := r.ResolveChannel(context.Background(), "#general")
		require.True(t, ok)
		assert.Equal(t, "C001", id)
	}
	assert.Equal(t, 1, api.listChannelCalls, "repeat resolutions must be cache hits")
}

func TestResolveChannel_CachesNegativeResult(t *testing.T) {
	api := &fakeAPI{channels: []Channel{{ID: "C001", Name: "general"}}}
	r := newTestResolver(api, 1000)

	for i := 0; i < 2; i++ {
		_, ok := r.ResolveChannel(context.Background(), "#no-such-channel")
		assert.False(t, ok)
	}
	assert.Equal(t, 1, api.listChannelCalls, "not-found must be cached too")
}

func TestResolveChannel_ServiceErrorIsNotFound(t *testing.T) {
	api := &fakeAPI{listErr: &APIError{Code: "ratelimited"}}
	r := newTestResolver(api, 1000)

	id, ok := r.ResolveChannel(context.Background(), "#general")
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestResolveUser_MatchesAnyNameField(t *testing.T) {
	api := &fakeAPI{users: []User{
		testUser("U001", "jdoe", "Johnny", "John Doe"),
		testUser("U002", "asmith", "", "Alice Smith"),
	}}
	r := newTestResolver(api, 1000)

	tests := []struct {
		input string
		want  string
	}{
		{"jdoe", "U001"},
		{"@jdoe", "U001"},
		{"Johnny", "U001"},
		{"John Doe", "U001"},
		{"Alice Smith", "U002"},
	}
	for _, tt := range tests {
		id, ok := r.ResolveUser(context.Background(), tt.input)
		require.True(t, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, id, "input %q", tt.input)
	}
}

func TestResolveUser_SkipsDeleted(t *testing.T) {
	gone := testUser("U001", "jdoe", "", "")
	gone.Deleted = true
	api := &fakeAPI{users: []User{gone}}
	r := newTestResolver(api, 1000)

	_, ok := r.ResolveUser(context.Background(), "jdoe")
	assert.False(t, ok)
}

func TestResolveUser_LiteralIDRequiresUserPrefix(t *testing.T) {
	api := &fakeAPI{users: []User{testUser("U001", "C0123", "", "")}}
	r := newTestResolver(api, 1000)

	id, ok := r.ResolveUser(context.Background(), "U0123")
	require.True(t, ok)
	assert.Equal(t, "U0123", id)
	assert.Zero(t, api.listUserCalls)

	// A channel-shaped ID is not a user ID; it goes through the directory.
	id, ok = r.ResolveUser(context.Background(), "C0123")
	require.True(t, ok)
	assert.Equal(t, "U001", id)
	assert.Equal(t, 1, api.listUserCalls)
}

func TestOpenDM_CachesConversation(t *testing.T) {
	api := &fakeAPI{}
	r := newTestResolver(api, 1000)

	for i := 0; i < 3; i++ {
		id, ok := r.OpenDM(context.Background(), "U001")
		require.True(t, ok)
		assert.Equal(t, "DU001", id)
	}
	assert.Equal(t, 1, api.openDMCalls)
}

func TestOpenDM_ErrorIsNotFound(t *testing.T) {
	api := &fakeAPI{openDMErr: &APIError{Code: "user_not_found"}}
	r := newTestResolver(api, 1000)

	_, ok := r.OpenDM(context.Background(), "U001")
	assert.False(t, ok)
}
