package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"digitaldemocracy/internal/logging"
)

var (
	ErrPostNotFound = errors.New("feed: post not found")
	ErrEmptyPost    = errors.New("feed: post needs text or media")
	ErrEmptyComment = errors.New("feed: comment text is empty")
	ErrBothMedia    = errors.New("feed: post cannot carry both an image and a video")
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

// TopicSource produces trending topics, typically from a generative model.
type TopicSource interface {
	TrendingTopics(ctx context.Context) ([]TrendingTopic, error)
}

// Option configures a Service.
type Option func(*Service)

// WithTopicSource sets where trending topics come from. Without one, or when it
// fails or returns nothing, FallbackTopics is used.
func WithTopicSource(src TopicSource) Option {
	return func(s *Service) { s.topics = src }
}

// WithPageSize sets the number of posts per page.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the in-memory feed. Safe for concurrent use.
type Service struct {
	topics   TopicSource
	pageSize int
	now      func() time.Time

	mu         sync.RWMutex
	posts      []Post
	candidates []Candidate
	featured   []User
}

// NewService returns a feed seeded with the demo data.
func NewService(opts ...Option) *Service {
	s := &Service{
		pageSize: DefaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.posts = seedPosts(s.now())
	s.candidates = seedCandidates()
	s.featured = seedFeaturedUsers()
	return s
}

// Posts returns page n (1-based), newest first.
func (s *Service) Posts(ctx context.Context, n int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if n < 1 {
		return Page{}, fmt.Errorf("feed: page must be >= 1, got %d", n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.posts)
	start := (n - 1) * s.pageSize
	end := start + s.pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	page := Page{
		Posts:    make([]Post, 0, end-start),
		Number:   n,
		PageSize: s.pageSize,
		Total:    total,
		HasMore:  end < total,
	}
	for _, p := range s.posts[start:end] {
		page.Posts = append(page.Posts, p.clone())
	}
	return page, nil
}

// Post returns a single post by id.
func (s *Service) Post(id string) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, id)
	}
	return s.posts[i].clone(), nil
}

// AddPost publishes d at the top of the feed.
func (s *Service) AddPost(ctx context.Context, d Draft) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}
	text := strings.TrimSpace(d.Text)
	if text == "" && d.ImageURL == "" && d.VideoURL == "" {
		return Post{}, ErrEmptyPost
	}
	if d.ImageURL != "" && d.VideoURL != "" {
		return Post{}, ErrBothMedia
	}

	post := Post{
		ID:        "p" + uuid.NewString(),
		Author:    d.Author,
		Text:      d.Text,
		ImageURL:  d.ImageURL,
		VideoURL:  d.VideoURL,
		Timestamp: s.now(),
		Comments:  []Comment{},
	}
	if len(d.Sources) > 0 {
		post.Sources = append([]Source(nil), d.Sources...)
	}

	s.mu.Lock()
	s.posts = append([]Post{post}, s.posts...)
	s.mu.Unlock()

	logging.Feed("Added post %s by %s (image=%v video=%v sources=%d)",
		post.ID, post.Author.Name, post.ImageURL != "", post.VideoURL != "", len(post.Sources))
	logging.Audit().Log(logging.AuditEvent{
		EventType: logging.AuditPostCreated,
		Operation: "add_post",
		Success:   true,
		Fields:    map[string]interface{}{"post_id": post.ID, "author": post.Author.ID},
	})
	return post.clone(), nil
}

// AddComment appends a comment to a post.
func (s *Service) AddComment(postID string, author User, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return Comment{}, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	c := Comment{
		ID:        "c" + uuid.NewString(),
		Author:    author,
		Text:      text,
		Timestamp: s.now(),
	}
	s.posts[i].Comments = append(s.posts[i].Comments, c)
	logging.FeedDebug("Comment %s on %s", c.ID, postID)
	return c, nil
}

// Like increments a post's likes and returns the new count.
func (s *Service) Like(postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	s.posts[i].Likes++
	return s.posts[i].Likes, nil
}

// Share increments a post's share count and returns the new count.
func (s *Service) Share(postID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(postID)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}
	s.posts[i].Shares++
	return s.posts[i].Shares, nil
}

// Candidates returns the election candidates.
func (s *Service) Candidates(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Candidate(nil), s.candidates...), nil
}

// FeaturedUsers returns the featured users strip.
func (s *Service) FeaturedUsers(ctx context.Context) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.featured...), nil
}

// TrendingTopics asks the topic source and falls back to FallbackTopics on error
// or an empty answer. It never fails.
func (s *Service) TrendingTopics(ctx context.Context) []TrendingTopic {
	if s.topics == nil {
		return FallbackTopics()
	}
	topics, err := s.topics.TrendingTopics(ctx)
	if err != nil {
		logging.Get(logging.CategoryFeed).Warn("Trending topics unavailable, using fallback: %v", err)
		return FallbackTopics()
	}
	if len(topics) == 0 {
		logging.FeedDebug("Topic source returned nothing, using fallback")
		return FallbackTopics()
	}
	return topics
}

// LoadHome fetches the first page and the side panels concurrently.
func (s *Service) LoadHome(ctx context.Context) (Home, error) {
	var home Home
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		page, err := s.Posts(egCtx, 1)
		if err != nil {
			return fmt.Errorf("load posts: %w", err)
		}
		home.Page = page
		return nil
	})
	eg.Go(func() error {
		c, err := s.Candidates(egCtx)
		if err != nil {
			return fmt.Errorf("load candidates: %w", err)
		}
		home.Candidates = c
		return nil
	})
	eg.Go(func() error {
		u, err := s.FeaturedUsers(egCtx)
		if err != nil {
			return fmt.Errorf("load featured users: %w", err)
		}
		home.FeaturedUsers = u
		return nil
	})
	eg.Go(func() error {
		home.Trending = s.TrendingTopics(egCtx)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}

func (s *Service) indexOf(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}
