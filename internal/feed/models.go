// Package feed is the in-memory social feed the creative studio publishes into.
// It holds posts, comments, candidates, featured users and trending topics for a
// single process; nothing is persisted.
package feed

import "time"

// User is a feed participant.
type User struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	AvatarURL string `json:"avatarUrl" yaml:"avatar_url"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	Author    User      `json:"author" yaml:"author"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Source is a reference shown under a post.
type Source struct {
	Title string `json:"title" yaml:"title"`
	URI   string `json:"uri" yaml:"uri"`
}

// Post is a feed entry. At most one of ImageURL and VideoURL is set.
type Post struct {
	ID        string    `json:"id" yaml:"id"`
	Author    User      `json:"author" yaml:"author"`
	Text      string    `json:"text" yaml:"text"`
	ImageURL  string    `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty" yaml:"video_url,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Likes     int       `json:"likes" yaml:"likes"`
	Comments  []Comment `json:"comments" yaml:"comments"`
	Shares    int       `json:"shares" yaml:"shares"`
	Sources   []Source  `json:"sources,omitempty" yaml:"sources,omitempty"`
}

func (p Post) clone() Post {
	p.Comments = append([]Comment(nil), p.Comments...)
	if p.Sources != nil {
		p.Sources = append([]Source(nil), p.Sources...)
	}
	return p
}

// Draft is the caller-supplied part of a new post. ID, timestamp and counters are
// assigned by the feed.
type Draft struct {
	Author   User
	Text     string
	ImageURL string
	VideoURL string
	Sources  []Source
}

// Gender of a candidate, as published by the election data.
type Gender string

const (
	GenderFemale Gender = "Female"
	GenderMale   Gender = "Male"
	GenderOther  Gender = "Other"
)

// Candidate is an election candidate shown beside the feed.
type Candidate struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Party       string `json:"party" yaml:"party"`
	AvatarURL   string `json:"avatarUrl" yaml:"avatar_url"`
	Supporters  int    `json:"supporters,omitempty" yaml:"supporters,omitempty"`
	PostCount   int    `json:"postCount,omitempty" yaml:"post_count,omitempty"`
	Governorate string `json:"governorate,omitempty" yaml:"governorate,omitempty"`
	Gender      Gender `json:"gender,omitempty" yaml:"gender,omitempty"`
}

// TrendingTopic is a topic with its post volume.
type TrendingTopic struct {
	Category  string `json:"category" yaml:"category"`
	Topic     string `json:"topic" yaml:"topic"`
	PostCount int    `json:"postCount" yaml:"post_count"`
}

// Page is one slice of the feed, newest first.
type Page struct {
	Posts    []Post `json:"posts" yaml:"posts"`
	Number   int    `json:"page" yaml:"page"`
	PageSize int    `json:"pageSize" yaml:"page_size"`
	Total    int    `json:"total" yaml:"total"`
	HasMore  bool   `json:"hasMore" yaml:"has_more"`
}

// Home is everything the home screen shows.
type Home struct {
	Page          Page            `json:"page" yaml:"page"`
	Candidates    []Candidate     `json:"candidates" yaml:"candidates"`
	FeaturedUsers []User          `json:"featuredUsers" yaml:"featured_users"`
	Trending      []TrendingTopic `json:"trending" yaml:"trending"`
}
