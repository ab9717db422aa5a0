package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(opts ...Option) *Service {
	return NewService(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

type stubTopics struct {
	topics []TrendingTopic
	err    error
}

func (s stubTopics) TrendingTopics(ctx context.Context) ([]TrendingTopic, error) {
	return s.topics, s.err
}

func TestService_SeededFeedNewestFirst(t *testing.T) {
	s := newTestService()
	page, err := s.Posts(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, page.Posts, 3)
	assert.Equal(t, []string{"p1", "p2", "p3"}, []string{page.Posts[0].ID, page.Posts[1].ID, page.Posts[2].ID})
	assert.Equal(t, fixedNow.Add(-2*time.Hour), page.Posts[0].Timestamp)
	assert.False(t, page.HasMore)
	assert.Equal(t, 3, page.Total)
}

func TestService_Pagination(t *testing.T) {
	s := newTestService(WithPageSize(2))
	ctx := context.Background()

	first, err := s.Posts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first.Posts, 2)
	assert.True(t, first.HasMore)

	second, err := s.Posts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, second.Posts, 1)
	assert.Equal(t, "p3", second.Posts[0].ID)
	assert.False(t, second.HasMore)

	beyond, err := s.Posts(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, beyond.Posts)

	_, err = s.Posts(ctx, 0)
	assert.Error(t, err)
}

func TestService_AddPostPrepends(t *testing.T) {
	s := newTestService()
	author := User{ID: "c1", Name: "Elena Rodriguez"}

	post, err := s.AddPost(context.Background(), Draft{
		Author:   author,
		Text:     "Clean water for all.\n\n#CleanWater",
		ImageURL: "img://1",
		Sources:  []Source{{Title: "WHO", URI: "https://who.int"}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, fixedNow, post.Timestamp)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Shares)
	assert.Empty(t, post.Comments)
	assert.Len(t, post.Sources, 1)

	page, err := s.Posts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, post.ID, page.Posts[0].ID)
	assert.Equal(t, 4, page.Total)
}

func TestService_AddPostValidation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.AddPost(ctx, Draft{Text: "  "})
	assert.ErrorIs(t, err, ErrEmptyPost)

	_, err = s.AddPost(ctx, Draft{Text: "x", ImageURL: "a", VideoURL: "b"})
	assert.ErrorIs(t, err, ErrBothMedia)

	// Media alone is enough.
	_, err = s.AddPost(ctx, Draft{VideoURL: "vid://1"})
	assert.NoError(t, err)
}

func TestService_CommentsLikesShares(t *testing.T) {
	s := newTestService()
	me := User{ID: "u99", Name: "Me"}

	c, err := s.AddComment("p3", me, " Count me in ")
	require.NoError(t, err)
	assert.Equal(t, "Count me in", c.Text)

	_, err = s.AddComment("p3", me, "")
	assert.ErrorIs(t, err, ErrEmptyComment)
	_, err = s.AddComment("nope", me, "hi")
	assert.ErrorIs(t, err, ErrPostNotFound)

	likes, err := s.Like("p1")
	require.NoError(t, err)
	assert.Equal(t, 129, likes)

	shares, err := s.Share("p2")
	require.NoError(t, err)
	assert.Equal(t, 89, shares)

	p, err := s.Post("p3")
	require.NoError(t, err)
	assert.Len(t, p.Comments, 1)
}

func TestService_ReturnedPostsAreCopies(t *testing.T) {
	s := newTestService()
	p, err := s.Post("p1")
	require.NoError(t, err)
	p.Comments[0].Text = "mutated"
	p.Sources[0].Title = "mutated"

	again, err := s.Post("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Comments[0].Text)
	assert.NotEqual(t, "mutated", again.Sources[0].Title)
}

func TestService_TrendingTopicsFallback(t *testing.T) {
	ctx := context.Background()
	generated := []TrendingTopic{{Category: "Civic", Topic: "Water Rights", PostCount: 42}}

	tests := []struct {
		name string
		src  TopicSource
		want []TrendingTopic
	}{
		{"no source", nil, FallbackTopics()},
		{"source error", stubTopics{err: errors.New("quota")}, FallbackTopics()},
		{"empty answer", stubTopics{}, FallbackTopics()},
		{"generated", stubTopics{topics: generated}, generated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.src != nil {
				opts = append(opts, WithTopicSource(tt.src))
			}
			s := newTestService(opts...)
			assert.Equal(t, tt.want, s.TrendingTopics(ctx))
		})
	}
}

func TestService_LoadHome(t *testing.T) {
	s := newTestService()
	home, err := s.LoadHome(context.Background())
	require.NoError(t, err)

	assert.Len(t, home.Page.Posts, 3)
	assert.Len(t, home.Candidates, 4)
	assert.Len(t, home.FeaturedUsers, 7)
	assert.Len(t, home.Trending, 5)
}

func TestService_LoadHomeCancelled(t *testing.T) {
	s := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.LoadHome(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_ConcurrentAddPost(t *testing.T) {
	s := newTestService()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddPost(context.Background(), Draft{Text: "hello"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	page, err := s.Posts(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 23, page.Total)
}
