package feed

import (
	"fmt"
	"time"
)

func mockUser(id int, name string, avatarID int) User {
	return User{
		ID:        fmt.Sprintf("u%d", id),
		Name:      name,
		AvatarURL: fmt.Sprintf("https://picsum.photos/id/%d/100/100", avatarID),
	}
}

func mockComment(id int, author User, text string, ago time.Duration, now time.Time) Comment {
	return Comment{
		ID:        fmt.Sprintf("c%d", id),
		Author:    author,
		Text:      text,
		Timestamp: now.Add(-ago),
	}
}

// seedPosts returns the demo feed relative to now, newest first.
func seedPosts(now time.Time) []Post {
	amara := mockUser(1, "Amara Al-Jamil", 1011)
	ben := mockUser(2, "Ben Carter", 1025)
	chen := mockUser(3, "Chen Wei", 1027)
	diana := mockUser(4, "Diana Prince", 1028)

	return []Post{
		{
			ID:        "p1",
			Author:    ben,
			Text:      "Excited to announce our new initiative to build more green spaces in the city center. A healthier community starts with a healthier environment! 🌳 #GreenCity #CommunityFirst",
			ImageURL:  "https://picsum.photos/seed/citypark/800/400",
			Timestamp: now.Add(-2 * time.Hour),
			Likes:     128,
			Comments: []Comment{
				mockComment(1, chen, "This is fantastic news! Looking forward to it.", 5*time.Minute, now),
				mockComment(2, diana, "Great initiative! Where can we find more details?", 10*time.Minute, now),
			},
			Shares: 45,
			Sources: []Source{
				{Title: "City Planning Commission - Green Space Initiative", URI: "#"},
				{Title: "Environmental Impact Report - Urban Parks", URI: "#"},
			},
		},
		{
			ID:        "p2",
			Author:    chen,
			Text:      "Our new policy proposal aims to support local small businesses with tax incentives and streamlined regulations. Let's empower our local entrepreneurs to thrive!",
			Timestamp: now.Add(-18 * time.Hour),
			Likes:     256,
			Comments: []Comment{
				mockComment(3, amara, "As a small business owner, I really appreciate this.", 2*time.Hour, now),
			},
			Shares: 88,
		},
		{
			ID:        "p3",
			Author:    diana,
			Text:      "Just had a productive town hall meeting discussing the future of our public transportation system. Thanks to everyone who came out and shared their ideas!",
			VideoURL:  "https://www.w3schools.com/html/mov_bbb.mp4",
			Timestamp: now.Add(-72 * time.Hour),
			Likes:     99,
			Comments:  []Comment{},
			Shares:    21,
		},
	}
}

func seedCandidates() []Candidate {
	return []Candidate{
		{ID: "c1", Name: "Elena Rodriguez", Party: "Progressive Alliance", AvatarURL: "https://picsum.photos/id/1027/100/100", Supporters: 12503, PostCount: 42, Governorate: "Baghdad", Gender: GenderFemale},
		{ID: "c2", Name: "Marcus Thorne", Party: "Economic Freedom Party", AvatarURL: "https://picsum.photos/id/1031/100/100", Supporters: 9870, PostCount: 35, Governorate: "Basra", Gender: GenderMale},
		{ID: "c3", Name: "Anya Sharma", Party: "Green Future Coalition", AvatarURL: "https://picsum.photos/id/1045/100/100", Supporters: 11200, PostCount: 51, Governorate: "Erbil", Gender: GenderFemale},
		{ID: "c4", Name: "Jamal Al-Farsi", Party: "National Unity Front", AvatarURL: "https://picsum.photos/id/1050/100/100", Supporters: 8500, PostCount: 28, Governorate: "Nineveh", Gender: GenderMale},
	}
}

func seedFeaturedUsers() []User {
	return []User{
		mockUser(10, "Leo Valdez", 10),
		mockUser(11, "Piper McLean", 11),
		mockUser(12, "Frank Zhang", 12),
		mockUser(13, "Hazel Levesque", 13),
		mockUser(14, "Jason Grace", 14),
		mockUser(15, "Annabeth Chase", 15),
		mockUser(16, "Percy Jackson", 16),
	}
}

// FallbackTopics is served when no topic source is configured or it fails.
func FallbackTopics() []TrendingTopic {
	return []TrendingTopic{
		{Category: "National Politics", Topic: "Healthcare Reform Bill", PostCount: 18200},
		{Category: "Local Community", Topic: "New Downtown Park Project", PostCount: 9800},
		{Category: "Technology", Topic: "Digital Voting Security", PostCount: 12500},
		{Category: "Environment", Topic: "Clean Energy Initiatives", PostCount: 7600},
		{Category: "Election 2024", Topic: "#DebateNight", PostCount: 25000},
	}
}
